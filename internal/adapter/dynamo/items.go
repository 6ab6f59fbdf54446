package dynamo

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/shopspring/decimal"

	"donortrack/internal/domain"
	"donortrack/internal/domain/donorform"
)

type eventItem struct {
	ID              string                `dynamodbav:"id"`
	Name            string                `dynamodbav:"name"`
	Description     string                `dynamodbav:"description"`
	CurrentAmount   attributevalue.Number `dynamodbav:"current_amount"`
	TotalVisitors   int64                 `dynamodbav:"total_visitors"`
	AdminPassword   string                `dynamodbav:"admin_password"`
	VisitorPassword string                `dynamodbav:"visitor_password"`
	CreatedAt       time.Time             `dynamodbav:"created_at"`
}

func toEventItem(ev *domain.Event) eventItem {
	return eventItem{
		ID:              ev.ID,
		Name:            ev.Name,
		Description:     ev.Description,
		CurrentAmount:   attributevalue.Number(ev.CurrentAmount.String()),
		TotalVisitors:   ev.TotalVisitors,
		AdminPassword:   ev.AdminPassword,
		VisitorPassword: ev.VisitorPassword,
		CreatedAt:       ev.CreatedAt,
	}
}

func (it eventItem) domain() (*domain.Event, error) {
	amount, err := parseNumber(it.CurrentAmount)
	if err != nil {
		return nil, fmt.Errorf("event %s amount: %w", it.ID, err)
	}
	return &domain.Event{
		ID:              it.ID,
		Name:            it.Name,
		Description:     it.Description,
		CurrentAmount:   amount,
		TotalVisitors:   it.TotalVisitors,
		AdminPassword:   it.AdminPassword,
		VisitorPassword: it.VisitorPassword,
		CreatedAt:       it.CreatedAt,
	}, nil
}

type donationItem struct {
	EventID      string                `dynamodbav:"event_id"`
	ID           string                `dynamodbav:"id"`
	DonorName    string                `dynamodbav:"donor_name"`
	Amount       attributevalue.Number `dynamodbav:"amount"`
	CustomFields map[string]any        `dynamodbav:"custom_fields,omitempty"`
	CreatedAt    time.Time             `dynamodbav:"created_at"`
	UpdatedAt    *time.Time            `dynamodbav:"updated_at,omitempty"`
}

func toDonationItem(d *domain.Donation) donationItem {
	return donationItem{
		EventID:      d.EventID,
		ID:           d.ID,
		DonorName:    d.DonorName,
		Amount:       attributevalue.Number(d.Amount.String()),
		CustomFields: d.CustomFields,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (it donationItem) domain() (*domain.Donation, error) {
	amount, err := parseNumber(it.Amount)
	if err != nil {
		return nil, fmt.Errorf("donation %s amount: %w", it.ID, err)
	}
	return &domain.Donation{
		ID:           it.ID,
		EventID:      it.EventID,
		DonorName:    it.DonorName,
		Amount:       amount,
		CustomFields: donorform.Values(it.CustomFields),
		CreatedAt:    it.CreatedAt,
		UpdatedAt:    it.UpdatedAt,
	}, nil
}

type fieldItem struct {
	ID        string   `dynamodbav:"id"`
	Label     string   `dynamodbav:"label"`
	FieldType string   `dynamodbav:"field_type"`
	Required  bool     `dynamodbav:"required"`
	Options   []string `dynamodbav:"options,omitempty"`
	Order     int      `dynamodbav:"order"`
}

type formItem struct {
	EventID   string      `dynamodbav:"event_id"`
	Fields    []fieldItem `dynamodbav:"fields"`
	Version   int64       `dynamodbav:"version"`
	UpdatedAt time.Time   `dynamodbav:"updated_at"`
}

func toFormItem(cfg *domain.FormConfig) formItem {
	fields := make([]fieldItem, len(cfg.Fields))
	for i, f := range cfg.Fields {
		fields[i] = fieldItem{
			ID:        f.ID,
			Label:     f.Label,
			FieldType: string(f.FieldType),
			Required:  f.Required,
			Options:   f.Options,
			Order:     f.Order,
		}
	}
	return formItem{EventID: cfg.EventID, Fields: fields, Version: cfg.Version, UpdatedAt: cfg.UpdatedAt}
}

func (it formItem) domain() *domain.FormConfig {
	fields := make([]donorform.Field, len(it.Fields))
	for i, f := range it.Fields {
		fields[i] = donorform.Field{
			ID:        f.ID,
			Label:     f.Label,
			FieldType: donorform.FieldType(f.FieldType),
			Required:  f.Required,
			Options:   f.Options,
			Order:     f.Order,
		}
	}
	return &domain.FormConfig{EventID: it.EventID, Fields: fields, Version: it.Version, UpdatedAt: it.UpdatedAt}
}

func parseNumber(n attributevalue.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(string(n))
}
