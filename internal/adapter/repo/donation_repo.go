package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"donortrack/internal/domain"
	"donortrack/internal/domain/donorform"
	"donortrack/internal/infra"
	"donortrack/internal/sqlinline"
)

// DonationRepositoryPG implements domain.DonationRepository using PostgreSQL.
type DonationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewDonationRepository creates a new donation repo.
func NewDonationRepository(sql infra.SQLExecutor) *DonationRepositoryPG {
	return &DonationRepositoryPG{sql: sql}
}

// Create inserts a new donation record.
func (r *DonationRepositoryPG) Create(ctx context.Context, donation *domain.Donation) error {
	values, err := encodeValues(donation.CustomFields)
	if err != nil {
		return err
	}
	if donation.CreatedAt.IsZero() {
		donation.CreatedAt = time.Now().UTC()
	}
	_, err = r.sql.Exec(ctx, sqlinline.QInsertDonation,
		donation.ID,
		donation.EventID,
		donation.DonorName,
		donation.Amount.String(),
		values,
		donation.CreatedAt,
	)
	return mapPGError(err)
}

// GetByID fetches one donation of an event.
func (r *DonationRepositoryPG) GetByID(ctx context.Context, eventID, id string) (*domain.Donation, error) {
	return scanDonation(r.sql.QueryRow(ctx, sqlinline.QGetDonation, eventID, id))
}

// ListByEvent returns the event's donations, newest first.
func (r *DonationRepositoryPG) ListByEvent(ctx context.Context, eventID string) ([]domain.Donation, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListDonationsByEvent, eventID)
	if err != nil {
		return nil, mapPGError(err)
	}
	defer rows.Close()

	items := make([]domain.Donation, 0)
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPGError(err)
	}
	return items, nil
}

// Update rewrites donor name, amount and custom values.
func (r *DonationRepositoryPG) Update(ctx context.Context, donation *domain.Donation) error {
	values, err := encodeValues(donation.CustomFields)
	if err != nil {
		return err
	}
	row := r.sql.QueryRow(ctx, sqlinline.QUpdateDonation,
		donation.EventID,
		donation.ID,
		donation.DonorName,
		donation.Amount.String(),
		values,
	)
	var updatedAt time.Time
	if err := row.Scan(&donation.CreatedAt, &updatedAt); err != nil {
		return rowError(err)
	}
	donation.UpdatedAt = &updatedAt
	return nil
}

// Delete removes one donation.
func (r *DonationRepositoryPG) Delete(ctx context.Context, eventID, id string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteDonation, eventID, id)
	return affected(tag, err)
}

func scanDonation(row pgx.Row) (*domain.Donation, error) {
	var (
		d      domain.Donation
		amount string
		raw    []byte
	)
	if err := row.Scan(&d.ID, &d.EventID, &d.DonorName, &amount, &raw, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, rowError(err)
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("donation %s amount: %w", d.ID, err)
	}
	d.Amount = a
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &d.CustomFields); err != nil {
			return nil, fmt.Errorf("donation %s custom fields: %w", d.ID, err)
		}
	}
	return &d, nil
}

func encodeValues(values donorform.Values) ([]byte, error) {
	if values == nil {
		return nil, nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode custom fields: %w", err)
	}
	return b, nil
}
