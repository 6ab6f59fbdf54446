package eventsvc

import (
	"context"
	"crypto/subtle"

	"github.com/shopspring/decimal"

	"donortrack/internal/domain"
	"donortrack/internal/live"
)

// CreateEvent validates in and stores a new event with zero totals.
func (s *Service) CreateEvent(ctx context.Context, in domain.EventInput) (*domain.Event, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	ev := &domain.Event{
		ID:              s.newID(),
		Name:            in.Name,
		Description:     in.Description,
		CurrentAmount:   decimal.Zero,
		AdminPassword:   in.AdminPassword,
		VisitorPassword: in.VisitorPassword,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.store.Events.Create(ctx, ev); err != nil {
		return nil, err
	}
	s.logger.Info().Str("event_id", ev.ID).Msg("event created")
	return ev, nil
}

// ListEvents returns every event, newest first. Callers strip passwords.
func (s *Service) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return s.store.Events.List(ctx)
}

// GetEvent returns one event to any session holder.
func (s *Service) GetEvent(ctx context.Context, access domain.Access, eventID string) (*domain.Event, error) {
	if err := requireSession(access, eventID); err != nil {
		return nil, err
	}
	return s.store.Events.GetByID(ctx, eventID)
}

// UpdateEvent replaces name, description and passwords.
func (s *Service) UpdateEvent(ctx context.Context, access domain.Access, eventID string, in domain.EventInput) (*domain.Event, error) {
	if err := requireAdmin(access, eventID); err != nil {
		return nil, err
	}
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	ev, err := s.store.Events.Update(ctx, eventID, in)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, eventID, live.TopicEvent)
	return ev, nil
}

// DeleteEvent removes the event with all its donations and its form.
func (s *Service) DeleteEvent(ctx context.Context, access domain.Access, eventID string) error {
	if err := requireAdmin(access, eventID); err != nil {
		return err
	}
	if err := s.store.Events.Delete(ctx, eventID); err != nil {
		return err
	}
	s.logger.Info().Str("event_id", eventID).Msg("event deleted")
	s.notify(ctx, eventID, live.AllTopics...)
	return nil
}

// OpenSession checks password against the stored password for role and
// returns the access it grants.
func (s *Service) OpenSession(ctx context.Context, eventID, role, password string) (domain.Access, error) {
	r, err := domain.ParseRole(role)
	if err != nil {
		return domain.Access{}, err
	}
	ev, err := s.store.Events.GetByID(ctx, eventID)
	if err != nil {
		return domain.Access{}, err
	}
	want := ev.PasswordFor(r)
	if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(password)) != 1 {
		s.logger.Info().Str("event_id", eventID).Str("role", string(r)).Msg("session rejected")
		return domain.Access{}, domain.ErrWrongPassword
	}
	return domain.Access{EventID: eventID, Role: r}, nil
}
