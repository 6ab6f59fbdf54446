package eventsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"donortrack/internal/domain"
	"donortrack/internal/infra"
	"donortrack/internal/live"
)

// TotalsCheck compares an event's running counters with its records.
type TotalsCheck struct {
	EventID  string
	Name     string
	Stored   domain.Totals
	Actual   domain.Totals
	Repaired bool
}

// Drifted reports whether the stored counters disagree with the records.
func (c TotalsCheck) Drifted() bool {
	return !c.Stored.Amount.Equal(c.Actual.Amount) || c.Stored.Visitors != c.Actual.Visitors
}

// CheckTotals recomputes one event's totals without writing anything.
func (s *Service) CheckTotals(ctx context.Context, eventID string) (TotalsCheck, error) {
	ev, err := s.store.Events.GetByID(ctx, eventID)
	if err != nil {
		return TotalsCheck{}, err
	}
	return s.check(ctx, ev)
}

func (s *Service) check(ctx context.Context, ev *domain.Event) (TotalsCheck, error) {
	donations, err := s.store.Donations.ListByEvent(ctx, ev.ID)
	if err != nil {
		return TotalsCheck{}, fmt.Errorf("list donations of %s: %w", ev.ID, err)
	}
	actual := domain.Totals{Amount: decimal.Zero, Visitors: int64(len(donations))}
	for _, d := range donations {
		actual.Amount = actual.Amount.Add(d.Amount)
	}
	return TotalsCheck{
		EventID: ev.ID,
		Name:    ev.Name,
		Stored:  domain.Totals{Amount: ev.CurrentAmount, Visitors: ev.TotalVisitors},
		Actual:  actual,
	}, nil
}

// Reconcile overwrites drifted counters of every event with the values
// recomputed from its donations. The write only lands if the counters still
// hold what was read before the donations were listed; an event whose
// counters moved meanwhile is left for the next pass. A donation stored
// before the listing whose counter adjustment lands after the write is
// counted twice until the next pass.
func (s *Service) Reconcile(ctx context.Context) ([]TotalsCheck, error) {
	events, err := s.store.Events.List(ctx)
	if err != nil {
		return nil, err
	}
	checks := make([]TotalsCheck, 0, len(events))
	for i := range events {
		if err := ctx.Err(); err != nil {
			return checks, err
		}
		c, err := s.check(ctx, &events[i])
		if err != nil {
			return checks, err
		}
		if c.Drifted() {
			err := s.store.Events.SetTotals(ctx, c.EventID, c.Stored, c.Actual)
			if errors.Is(err, domain.ErrTotalsChanged) {
				s.logger.Info().Str("event_id", c.EventID).Msg("event totals moved during check, skipped")
				checks = append(checks, c)
				continue
			}
			if err != nil {
				return checks, fmt.Errorf("set totals of %s: %w", c.EventID, err)
			}
			c.Repaired = true
			infra.ReconcileDrift.Inc()
			s.logger.Warn().
				Str("event_id", c.EventID).
				Str("stored_amount", c.Stored.Amount.String()).
				Str("actual_amount", c.Actual.Amount.String()).
				Int64("stored_visitors", c.Stored.Visitors).
				Int64("actual_visitors", c.Actual.Visitors).
				Msg("event totals repaired")
			s.notify(ctx, c.EventID, live.TopicEvent)
		}
		checks = append(checks, c)
	}
	return checks, nil
}
