package eventsvc

import (
	"context"
	"errors"

	"donortrack/internal/domain"
	"donortrack/internal/domain/donorform"
	"donortrack/internal/infra"
	"donortrack/internal/live"
)

// Form returns the event's current schema document.
func (s *Service) Form(ctx context.Context, access domain.Access, eventID string) (*domain.FormConfig, error) {
	if err := requireSession(access, eventID); err != nil {
		return nil, err
	}
	if _, err := s.store.Events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	cfg, err := s.store.Forms.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	cfg.Fields = donorform.Sorted(cfg.Fields)
	return cfg, nil
}

func (s *Service) AddField(ctx context.Context, access domain.Access, eventID string, in donorform.NewField) (*domain.FormConfig, error) {
	return s.mutateForm(ctx, access, eventID, "add_field", s.editor.AddFieldOp(in))
}

func (s *Service) UpdateField(ctx context.Context, access domain.Access, eventID, fieldID string, patch donorform.FieldPatch) (*domain.FormConfig, error) {
	return s.mutateForm(ctx, access, eventID, "update_field", func(cur []donorform.Field) ([]donorform.Field, error) {
		return donorform.UpdateField(cur, fieldID, patch)
	})
}

func (s *Service) DeleteField(ctx context.Context, access domain.Access, eventID, fieldID string) (*domain.FormConfig, error) {
	return s.mutateForm(ctx, access, eventID, "delete_field", func(cur []donorform.Field) ([]donorform.Field, error) {
		return donorform.DeleteField(cur, fieldID)
	})
}

func (s *Service) MoveField(ctx context.Context, access domain.Access, eventID, fieldID string, dir donorform.Direction) (*domain.FormConfig, error) {
	return s.mutateForm(ctx, access, eventID, "move_field", func(cur []donorform.Field) ([]donorform.Field, error) {
		return donorform.MoveField(cur, fieldID, dir)
	})
}

func (s *Service) AddOption(ctx context.Context, access domain.Access, eventID, fieldID, value string) (*domain.FormConfig, error) {
	return s.mutateForm(ctx, access, eventID, "add_option", func(cur []donorform.Field) ([]donorform.Field, error) {
		return donorform.AddOption(cur, fieldID, value)
	})
}

func (s *Service) EditOption(ctx context.Context, access domain.Access, eventID, fieldID string, index int, value string) (*domain.FormConfig, error) {
	return s.mutateForm(ctx, access, eventID, "edit_option", func(cur []donorform.Field) ([]donorform.Field, error) {
		return donorform.EditOption(cur, fieldID, index, value)
	})
}

func (s *Service) DeleteOption(ctx context.Context, access domain.Access, eventID, fieldID string, index int) (*domain.FormConfig, error) {
	return s.mutateForm(ctx, access, eventID, "delete_option", func(cur []donorform.Field) ([]donorform.Field, error) {
		return donorform.DeleteOption(cur, fieldID, index)
	})
}

// mutateForm reads the stored schema, applies op and writes the result on
// the version it read. A lost race re-applies op to the fresh schema.
func (s *Service) mutateForm(ctx context.Context, access domain.Access, eventID, name string, op donorform.Op) (*domain.FormConfig, error) {
	if err := requireAdmin(access, eventID); err != nil {
		return nil, err
	}
	if _, err := s.store.Events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		cur, err := s.store.Forms.Get(ctx, eventID)
		if err != nil {
			infra.SchemaOps.WithLabelValues(name, "error").Inc()
			return nil, err
		}
		next, err := op(donorform.Clone(cur.Fields))
		if err != nil {
			infra.SchemaOps.WithLabelValues(name, "rejected").Inc()
			return nil, err
		}
		saved, err := s.store.Forms.Save(ctx, eventID, next, cur.Version)
		if errors.Is(err, domain.ErrVersionConflict) {
			infra.VersionConflicts.Inc()
			if attempt < maxFormAttempts {
				s.logger.Debug().Str("event_id", eventID).Str("op", name).Int("attempt", attempt).Msg("form version conflict, retrying")
				continue
			}
		}
		if err != nil {
			infra.SchemaOps.WithLabelValues(name, "error").Inc()
			return nil, err
		}

		infra.SchemaOps.WithLabelValues(name, "ok").Inc()
		s.logger.Info().Str("event_id", eventID).Str("op", name).Int64("version", saved.Version).Msg("form updated")
		s.notify(ctx, eventID, live.TopicForm)
		saved.Fields = donorform.Sorted(saved.Fields)
		return saved, nil
	}
}
