// Package memstore keeps events, donations and forms in process memory. It
// backs STORE_BACKEND=memory for local development and the service tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"donortrack/internal/domain"
	"donortrack/internal/domain/donorform"
)

type state struct {
	mu        sync.RWMutex
	events    map[string]domain.Event
	donations map[string]map[string]domain.Donation
	forms     map[string]domain.FormConfig
	now       func() time.Time
}

// New returns a store whose repositories share one state.
func New() domain.Store {
	return NewWithClock(time.Now)
}

// NewWithClock is New with an injectable clock.
func NewWithClock(now func() time.Time) domain.Store {
	s := &state{
		events:    make(map[string]domain.Event),
		donations: make(map[string]map[string]domain.Donation),
		forms:     make(map[string]domain.FormConfig),
		now:       now,
	}
	return domain.Store{
		Events:    &EventRepository{s: s},
		Donations: &DonationRepository{s: s},
		Forms:     &FormRepository{s: s},
	}
}

// EventRepository implements domain.EventRepository.
type EventRepository struct{ s *state }

func (r *EventRepository) Create(_ context.Context, event *domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.s.now().UTC()
	}
	r.s.events[event.ID] = *event
	return nil
}

func (r *EventRepository) GetByID(_ context.Context, id string) (*domain.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ev, ok := r.s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &ev, nil
}

func (r *EventRepository) List(_ context.Context) ([]domain.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := make([]domain.Event, 0, len(r.s.events))
	for _, ev := range r.s.events {
		items = append(items, ev)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (r *EventRepository) Update(_ context.Context, id string, in domain.EventInput) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ev, ok := r.s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	ev.Name = in.Name
	ev.Description = in.Description
	ev.AdminPassword = in.AdminPassword
	ev.VisitorPassword = in.VisitorPassword
	r.s.events[id] = ev
	return &ev, nil
}

func (r *EventRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.donations, id)
	delete(r.s.forms, id)
	delete(r.s.events, id)
	return nil
}

func (r *EventRepository) AdjustTotals(_ context.Context, id string, amountDelta decimal.Decimal, visitorDelta int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ev, ok := r.s.events[id]
	if !ok {
		return domain.ErrNotFound
	}
	ev.CurrentAmount = ev.CurrentAmount.Add(amountDelta)
	ev.TotalVisitors += visitorDelta
	r.s.events[id] = ev
	return nil
}

func (r *EventRepository) SetTotals(_ context.Context, id string, expected, totals domain.Totals) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ev, ok := r.s.events[id]
	if !ok {
		return domain.ErrNotFound
	}
	if !ev.CurrentAmount.Equal(expected.Amount) || ev.TotalVisitors != expected.Visitors {
		return domain.ErrTotalsChanged
	}
	ev.CurrentAmount = totals.Amount
	ev.TotalVisitors = totals.Visitors
	r.s.events[id] = ev
	return nil
}

// DonationRepository implements domain.DonationRepository.
type DonationRepository struct{ s *state }

func (r *DonationRepository) Create(_ context.Context, donation *domain.Donation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[donation.EventID]; !ok {
		return domain.ErrNotFound
	}
	if donation.CreatedAt.IsZero() {
		donation.CreatedAt = r.s.now().UTC()
	}
	bucket, ok := r.s.donations[donation.EventID]
	if !ok {
		bucket = make(map[string]domain.Donation)
		r.s.donations[donation.EventID] = bucket
	}
	bucket[donation.ID] = copyDonation(*donation)
	return nil
}

func (r *DonationRepository) GetByID(_ context.Context, eventID, id string) (*domain.Donation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.donations[eventID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyDonation(d)
	return &out, nil
}

func (r *DonationRepository) ListByEvent(_ context.Context, eventID string) ([]domain.Donation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := make([]domain.Donation, 0, len(r.s.donations[eventID]))
	for _, d := range r.s.donations[eventID] {
		items = append(items, copyDonation(d))
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (r *DonationRepository) Update(_ context.Context, donation *domain.Donation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.donations[donation.EventID][donation.ID]
	if !ok {
		return domain.ErrNotFound
	}
	now := r.s.now().UTC()
	donation.CreatedAt = existing.CreatedAt
	donation.UpdatedAt = &now
	r.s.donations[donation.EventID][donation.ID] = copyDonation(*donation)
	return nil
}

func (r *DonationRepository) Delete(_ context.Context, eventID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.donations[eventID][id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.donations[eventID], id)
	return nil
}

// FormRepository implements domain.FormRepository.
type FormRepository struct{ s *state }

func (r *FormRepository) Get(_ context.Context, eventID string) (*domain.FormConfig, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	cfg, ok := r.s.forms[eventID]
	if !ok {
		return &domain.FormConfig{EventID: eventID, Fields: []donorform.Field{}}, nil
	}
	cfg.Fields = donorform.Clone(cfg.Fields)
	return &cfg, nil
}

func (r *FormRepository) Save(_ context.Context, eventID string, fields []donorform.Field, expectedVersion int64) (*domain.FormConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[eventID]; !ok {
		return nil, domain.ErrNotFound
	}
	current := r.s.forms[eventID]
	if current.Version != expectedVersion {
		return nil, domain.ErrVersionConflict
	}
	cfg := domain.FormConfig{
		EventID:   eventID,
		Fields:    donorform.Clone(fields),
		Version:   expectedVersion + 1,
		UpdatedAt: r.s.now().UTC(),
	}
	r.s.forms[eventID] = cfg
	cfg.Fields = donorform.Clone(cfg.Fields)
	return &cfg, nil
}

func copyDonation(d domain.Donation) domain.Donation {
	if d.CustomFields != nil {
		values := make(donorform.Values, len(d.CustomFields))
		for k, v := range d.CustomFields {
			values[k] = v
		}
		d.CustomFields = values
	}
	if d.UpdatedAt != nil {
		t := *d.UpdatedAt
		d.UpdatedAt = &t
	}
	return d
}
