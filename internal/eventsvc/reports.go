package eventsvc

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"donortrack/internal/domain"
	"donortrack/internal/domain/donorform"
)

// Insights summarizes the choice fields of the current schema.
func (s *Service) Insights(ctx context.Context, access domain.Access, eventID string) (donorform.Summary, error) {
	cfg, donations, err := s.formAndDonations(ctx, access, eventID)
	if err != nil {
		return donorform.Summary{}, err
	}
	return donorform.Summarize(cfg.Fields, domain.Records(donations)), nil
}

// Table projects every donation onto the current schema.
func (s *Service) Table(ctx context.Context, access domain.Access, eventID string) (donorform.Table, error) {
	cfg, donations, err := s.formAndDonations(ctx, access, eventID)
	if err != nil {
		return donorform.Table{}, err
	}
	return donorform.BuildTable(cfg.Fields, domain.Records(donations)), nil
}

// Export is the raw event dump. Donations carry their full stored values,
// including ones whose field no longer exists.
type Export struct {
	Name        string
	Description string
	TotalAmount decimal.Decimal
	TotalDonors int
	Fields      []donorform.Field
	Donations   []domain.Donation
	GeneratedAt time.Time
}

// Export builds the raw export. Totals are computed from the records, not
// read from the running counters.
func (s *Service) Export(ctx context.Context, access domain.Access, eventID string) (*Export, error) {
	if err := requireSession(access, eventID); err != nil {
		return nil, err
	}
	ev, err := s.store.Events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.store.Forms.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	donations, err := s.store.Donations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return &Export{
		Name:        ev.Name,
		Description: ev.Description,
		TotalAmount: donorform.TotalAmount(domain.Records(donations)),
		TotalDonors: len(donations),
		Fields:      donorform.Sorted(cfg.Fields),
		Donations:   donations,
		GeneratedAt: s.now().UTC(),
	}, nil
}

func (s *Service) formAndDonations(ctx context.Context, access domain.Access, eventID string) (*domain.FormConfig, []domain.Donation, error) {
	cfg, err := s.Form(ctx, access, eventID)
	if err != nil {
		return nil, nil, err
	}
	donations, err := s.store.Donations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	return cfg, donations, nil
}
