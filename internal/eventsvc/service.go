// Package eventsvc applies the donor form operations to stored events. Every
// call receives the caller's resolved domain.Access; the service never looks
// up roles on its own.
package eventsvc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"donortrack/internal/domain"
	"donortrack/internal/domain/donorform"
	"donortrack/internal/live"
)

// maxFormAttempts bounds re-application of a schema op after version conflicts.
const maxFormAttempts = 3

// Service coordinates the store, the schema editor and change notification.
type Service struct {
	store    domain.Store
	editor   *donorform.Editor
	notifier live.Notifier
	logger   zerolog.Logger
	newID    func() string
	now      func() time.Time
}

// New creates a Service. A nil notifier disables change notification.
func New(store domain.Store, notifier live.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		editor:   donorform.NewEditor(),
		notifier: notifier,
		logger:   logger,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

func requireSession(access domain.Access, eventID string) error {
	if !access.Allows(eventID) {
		return domain.ErrUnauthorized
	}
	return nil
}

func requireAdmin(access domain.Access, eventID string) error {
	if err := requireSession(access, eventID); err != nil {
		return err
	}
	if !access.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// notify is best effort: the write already happened.
func (s *Service) notify(ctx context.Context, eventID string, topics ...live.Topic) {
	if s.notifier == nil {
		return
	}
	for _, t := range topics {
		if err := s.notifier.Notify(ctx, live.Change{EventID: eventID, Topic: t}); err != nil {
			s.logger.Warn().Err(err).Str("event_id", eventID).Str("topic", string(t)).Msg("change notification failed")
		}
	}
}
