package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"donortrack/internal/domain/donorform"
)

// Donation represents a single contribution recorded against an event.
type Donation struct {
	ID           string
	EventID      string
	DonorName    string
	Amount       decimal.Decimal
	CustomFields donorform.Values
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// Record returns the view the schema computations work on.
func (d Donation) Record() donorform.Record {
	return donorform.Record{
		DonorName: d.DonorName,
		Amount:    d.Amount,
		Values:    d.CustomFields,
		CreatedAt: d.CreatedAt,
	}
}

// Records converts a donation list.
func Records(donations []Donation) []donorform.Record {
	out := make([]donorform.Record, len(donations))
	for i, d := range donations {
		out[i] = d.Record()
	}
	return out
}

// DonationInput is the admin input for creating or editing a donation.
type DonationInput struct {
	DonorName    string
	Amount       *decimal.Decimal
	CustomFields donorform.Values
}

// Candidate returns the value the validator checks.
func (in DonationInput) Candidate() donorform.Candidate {
	return donorform.Candidate{
		DonorName: in.DonorName,
		Amount:    in.Amount,
		Values:    in.CustomFields,
	}
}
