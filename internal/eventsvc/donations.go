package eventsvc

import (
	"context"
	"strings"

	"donortrack/internal/domain"
	"donortrack/internal/domain/donorform"
	"donortrack/internal/infra"
	"donortrack/internal/live"
)

// ListDonations returns the event's donations, newest first.
func (s *Service) ListDonations(ctx context.Context, access domain.Access, eventID string) ([]domain.Donation, error) {
	if err := requireSession(access, eventID); err != nil {
		return nil, err
	}
	if _, err := s.store.Events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.Donations.ListByEvent(ctx, eventID)
}

// GetDonation returns one donation of the event.
func (s *Service) GetDonation(ctx context.Context, access domain.Access, eventID, donationID string) (*domain.Donation, error) {
	if err := requireSession(access, eventID); err != nil {
		return nil, err
	}
	return s.store.Donations.GetByID(ctx, eventID, donationID)
}

// CreateDonation validates in against the current schema, stores it and
// moves the event totals by its amount and one donor.
func (s *Service) CreateDonation(ctx context.Context, access domain.Access, eventID string, in domain.DonationInput) (*domain.Donation, error) {
	if err := requireAdmin(access, eventID); err != nil {
		return nil, err
	}
	if err := s.validateDonation(ctx, eventID, in); err != nil {
		return nil, err
	}

	d := &domain.Donation{
		ID:           s.newID(),
		EventID:      eventID,
		DonorName:    strings.TrimSpace(in.DonorName),
		Amount:       *in.Amount,
		CustomFields: in.CustomFields,
		CreatedAt:    s.now().UTC(),
	}
	if d.CustomFields == nil {
		d.CustomFields = donorform.Values{}
	}
	if err := s.store.Donations.Create(ctx, d); err != nil {
		infra.DonationWrites.WithLabelValues("create", "error").Inc()
		return nil, err
	}
	infra.DonationWrites.WithLabelValues("create", "ok").Inc()
	s.flagAmount(eventID, d)

	if err := s.store.Events.AdjustTotals(ctx, eventID, d.Amount, 1); err != nil {
		s.logger.Error().Err(err).Str("event_id", eventID).Str("donation_id", d.ID).Msg("totals not adjusted after create")
	}
	s.notify(ctx, eventID, live.TopicDonations, live.TopicEvent)
	return d, nil
}

// UpdateDonation rewrites a donation, keeping its id and creation time. The
// event amount moves by the difference; the donor count is unchanged.
func (s *Service) UpdateDonation(ctx context.Context, access domain.Access, eventID, donationID string, in domain.DonationInput) (*domain.Donation, error) {
	if err := requireAdmin(access, eventID); err != nil {
		return nil, err
	}
	existing, err := s.store.Donations.GetByID(ctx, eventID, donationID)
	if err != nil {
		return nil, err
	}
	if err := s.validateDonation(ctx, eventID, in); err != nil {
		return nil, err
	}

	d := &domain.Donation{
		ID:           existing.ID,
		EventID:      eventID,
		DonorName:    strings.TrimSpace(in.DonorName),
		Amount:       *in.Amount,
		CustomFields: in.CustomFields,
		CreatedAt:    existing.CreatedAt,
	}
	if d.CustomFields == nil {
		d.CustomFields = donorform.Values{}
	}
	if err := s.store.Donations.Update(ctx, d); err != nil {
		infra.DonationWrites.WithLabelValues("update", "error").Inc()
		return nil, err
	}
	infra.DonationWrites.WithLabelValues("update", "ok").Inc()
	s.flagAmount(eventID, d)

	topics := []live.Topic{live.TopicDonations}
	if delta := d.Amount.Sub(existing.Amount); !delta.IsZero() {
		if err := s.store.Events.AdjustTotals(ctx, eventID, delta, 0); err != nil {
			s.logger.Error().Err(err).Str("event_id", eventID).Str("donation_id", d.ID).Msg("totals not adjusted after update")
		}
		topics = append(topics, live.TopicEvent)
	}
	s.notify(ctx, eventID, topics...)
	return d, nil
}

// DeleteDonation removes a donation and takes its amount and donor off the
// event totals.
func (s *Service) DeleteDonation(ctx context.Context, access domain.Access, eventID, donationID string) error {
	if err := requireAdmin(access, eventID); err != nil {
		return err
	}
	existing, err := s.store.Donations.GetByID(ctx, eventID, donationID)
	if err != nil {
		return err
	}
	if err := s.store.Donations.Delete(ctx, eventID, donationID); err != nil {
		infra.DonationWrites.WithLabelValues("delete", "error").Inc()
		return err
	}
	infra.DonationWrites.WithLabelValues("delete", "ok").Inc()

	if err := s.store.Events.AdjustTotals(ctx, eventID, existing.Amount.Neg(), -1); err != nil {
		s.logger.Error().Err(err).Str("event_id", eventID).Str("donation_id", donationID).Msg("totals not adjusted after delete")
	}
	s.notify(ctx, eventID, live.TopicDonations, live.TopicEvent)
	return nil
}

func (s *Service) validateDonation(ctx context.Context, eventID string, in domain.DonationInput) error {
	if _, err := s.store.Events.GetByID(ctx, eventID); err != nil {
		return err
	}
	cfg, err := s.store.Forms.Get(ctx, eventID)
	if err != nil {
		return err
	}
	return donorform.Validate(cfg.Fields, in.Candidate())
}

// flagAmount logs amounts that are accepted but probably mistyped.
func (s *Service) flagAmount(eventID string, d *domain.Donation) {
	if d.Amount.Sign() <= 0 {
		s.logger.Warn().Str("event_id", eventID).Str("donation_id", d.ID).Str("amount", d.Amount.String()).Msg("non-positive donation amount admitted")
	}
}
