package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"donortrack/internal/domain"
	"donortrack/internal/infra"
	"donortrack/internal/sqlinline"
)

// EventRepositoryPG implements domain.EventRepository backed by PostgreSQL.
type EventRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewEventRepository creates a new EventRepositoryPG.
func NewEventRepository(sql infra.SQLExecutor) *EventRepositoryPG {
	return &EventRepositoryPG{sql: sql}
}

// Create inserts an event with zeroed totals.
func (r *EventRepositoryPG) Create(ctx context.Context, event *domain.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertEvent,
		event.ID,
		event.Name,
		event.Description,
		event.AdminPassword,
		event.VisitorPassword,
		event.CreatedAt,
	)
	return err
}

// GetByID fetches a single event.
func (r *EventRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return scanEvent(r.sql.QueryRow(ctx, sqlinline.QGetEvent, id))
}

// List returns all events, newest first.
func (r *EventRepositoryPG) List(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListEvents)
	if err != nil {
		return nil, mapPGError(err)
	}
	defer rows.Close()

	items := make([]domain.Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPGError(err)
	}
	return items, nil
}

// Update replaces the editable attributes and returns the stored row.
func (r *EventRepositoryPG) Update(ctx context.Context, id string, in domain.EventInput) (*domain.Event, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QUpdateEvent, id, in.Name, in.Description, in.AdminPassword, in.VisitorPassword)
	return scanEvent(row)
}

// Delete removes the event; donations and the form go with it.
func (r *EventRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteEvent, id)
	return affected(tag, err)
}

// AdjustTotals adds deltas to the running counters.
func (r *EventRepositoryPG) AdjustTotals(ctx context.Context, id string, amountDelta decimal.Decimal, visitorDelta int64) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QAdjustEventTotals, id, amountDelta.String(), visitorDelta)
	return affected(tag, err)
}

// SetTotals overwrites the running counters if they still hold expected.
func (r *EventRepositoryPG) SetTotals(ctx context.Context, id string, expected, totals domain.Totals) error {
	row := r.sql.QueryRow(ctx, sqlinline.QSetEventTotals, id,
		expected.Amount.String(), expected.Visitors,
		totals.Amount.String(), totals.Visitors,
	)
	var found, written bool
	if err := row.Scan(&found, &written); err != nil {
		return rowError(err)
	}
	switch {
	case written:
		return nil
	case !found:
		return domain.ErrNotFound
	default:
		return domain.ErrTotalsChanged
	}
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var (
		ev     domain.Event
		amount string
	)
	if err := row.Scan(&ev.ID, &ev.Name, &ev.Description, &amount, &ev.TotalVisitors, &ev.AdminPassword, &ev.VisitorPassword, &ev.CreatedAt); err != nil {
		return nil, rowError(err)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("event %s amount: %w", ev.ID, err)
	}
	ev.CurrentAmount = d
	return &ev, nil
}

func affected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapPGError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// PostgreSQL error codes the repositories translate.
const (
	pgForeignKeyViolation       = "23503"
	pgInvalidTextRepresentation = "22P02"
)

// mapPGError turns foreign key violations (the parent event is gone) and
// ids that are not valid UUIDs (no row can have them) into ErrNotFound.
func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation, pgInvalidTextRepresentation:
			return domain.ErrNotFound
		}
	}
	return err
}

// rowError is mapPGError for single-row reads, where no rows also means
// ErrNotFound.
func rowError(err error) error {
	if infra.IsNoRows(err) {
		return domain.ErrNotFound
	}
	return mapPGError(err)
}
