package domain

import (
	"context"

	"github.com/shopspring/decimal"

	"donortrack/internal/domain/donorform"
)

// EventRepository defines persistence for events.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context) ([]Event, error)
	Update(ctx context.Context, id string, in EventInput) (*Event, error)
	// Delete removes the event together with its donations and form.
	Delete(ctx context.Context, id string) error
	AdjustTotals(ctx context.Context, id string, amountDelta decimal.Decimal, visitorDelta int64) error
	// SetTotals overwrites the counters if they still equal expected,
	// returning ErrTotalsChanged otherwise.
	SetTotals(ctx context.Context, id string, expected, totals Totals) error
}

// DonationRepository handles donation persistence.
type DonationRepository interface {
	Create(ctx context.Context, donation *Donation) error
	GetByID(ctx context.Context, eventID, id string) (*Donation, error)
	// ListByEvent returns the event's donations, newest first.
	ListByEvent(ctx context.Context, eventID string) ([]Donation, error)
	Update(ctx context.Context, donation *Donation) error
	Delete(ctx context.Context, eventID, id string) error
}

// FormRepository stores the custom field schema document.
type FormRepository interface {
	// Get returns the event's form, or an empty one with Version 0.
	Get(ctx context.Context, eventID string) (*FormConfig, error)
	// Save overwrites the field list if the stored version still equals
	// expectedVersion, returning ErrVersionConflict otherwise.
	Save(ctx context.Context, eventID string, fields []donorform.Field, expectedVersion int64) (*FormConfig, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Events    EventRepository
	Donations DonationRepository
	Forms     FormRepository
}
