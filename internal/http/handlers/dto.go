package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"donortrack/internal/domain"
	"donortrack/internal/domain/donorform"
)

type eventDTO struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	CurrentAmount float64   `json:"currentAmount"`
	TotalVisitors int64     `json:"totalVisitors"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toEventDTO(ev *domain.Event) eventDTO {
	return eventDTO{
		ID:            ev.ID,
		Name:          ev.Name,
		Description:   ev.Description,
		CurrentAmount: ev.CurrentAmount.InexactFloat64(),
		TotalVisitors: ev.TotalVisitors,
		CreatedAt:     ev.CreatedAt,
	}
}

type formDTO struct {
	EventID   string            `json:"eventId"`
	Version   int64             `json:"version"`
	UpdatedAt *time.Time        `json:"updatedAt,omitempty"`
	Fields    []donorform.Field `json:"fields"`
}

func toFormDTO(cfg *domain.FormConfig) formDTO {
	out := formDTO{
		EventID: cfg.EventID,
		Version: cfg.Version,
		Fields:  donorform.Sorted(cfg.Fields),
	}
	if out.Fields == nil {
		out.Fields = []donorform.Field{}
	}
	if !cfg.UpdatedAt.IsZero() {
		at := cfg.UpdatedAt
		out.UpdatedAt = &at
	}
	return out
}

type donationDTO struct {
	ID           string           `json:"id"`
	EventID      string           `json:"eventId"`
	DonorName    string           `json:"donorName"`
	Amount       float64          `json:"amount"`
	CustomFields donorform.Values `json:"customFields"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    *time.Time       `json:"updatedAt,omitempty"`
}

func toDonationDTO(d *domain.Donation) donationDTO {
	values := d.CustomFields
	if values == nil {
		values = donorform.Values{}
	}
	return donationDTO{
		ID:           d.ID,
		EventID:      d.EventID,
		DonorName:    d.DonorName,
		Amount:       d.Amount.InexactFloat64(),
		CustomFields: values,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func toDonationDTOs(items []domain.Donation) []donationDTO {
	out := make([]donationDTO, 0, len(items))
	for i := range items {
		out = append(out, toDonationDTO(&items[i]))
	}
	return out
}

// percent renders a 0-100 share rounded to one decimal.
func percent(d decimal.Decimal) float64 {
	return d.Round(1).InexactFloat64()
}
