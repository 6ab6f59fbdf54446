package donorform

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Candidate is a donation about to be written.
type Candidate struct {
	DonorName string
	// Amount is nil when the client sent nothing parseable.
	Amount *decimal.Decimal
	Values Values
}

// Validate decides whether a candidate may be written under schema. It only
// checks presence: a non-empty donor name, a numeric amount, and an answer
// for every required field. Zero and negative amounts are admitted.
func Validate(schema []Field, c Candidate) error {
	if strings.TrimSpace(c.DonorName) == "" {
		return ErrEmptyDonorName
	}
	if c.Amount == nil {
		return ErrMissingAmount
	}
	for _, f := range Sorted(schema) {
		if !f.Required {
			continue
		}
		if _, ok := c.Values.Value(f.ID); !ok {
			return &MissingRequiredFieldError{FieldID: f.ID, Label: f.Label}
		}
	}
	return nil
}

// ParseAmount reads an amount sent either as a JSON number or a numeric
// string. Nil, empty, boolean and non-numeric inputs yield ErrMissingAmount.
func ParseAmount(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, ErrMissingAmount
	case decimal.Decimal:
		return v, nil
	case json.Number:
		return parseAmountString(v.String())
	case string:
		return parseAmountString(v)
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return decimal.Zero, ErrMissingAmount
		}
		return decimal.NewFromFloat(f), nil
	default:
		return decimal.Zero, ErrMissingAmount
	}
}

func parseAmountString(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, ErrMissingAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrMissingAmount
	}
	return d, nil
}
