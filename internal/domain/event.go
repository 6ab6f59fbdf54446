package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Event is a donation campaign guarded by an admin and a visitor password.
type Event struct {
	ID              string
	Name            string
	Description     string
	CurrentAmount   decimal.Decimal
	TotalVisitors   int64
	AdminPassword   string
	VisitorPassword string
	CreatedAt       time.Time
}

// PasswordFor returns the stored password gating role.
func (e *Event) PasswordFor(role Role) string {
	switch role {
	case RoleAdmin:
		return e.AdminPassword
	case RoleVisitor:
		return e.VisitorPassword
	default:
		return ""
	}
}

// EventInput carries the editable attributes of an event.
type EventInput struct {
	Name            string
	Description     string
	AdminPassword   string
	VisitorPassword string
}

// Normalize trims the input and enforces the password rules: exactly four
// digits each, and not equal to each other.
func (in *EventInput) Normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.AdminPassword = strings.TrimSpace(in.AdminPassword)
	in.VisitorPassword = strings.TrimSpace(in.VisitorPassword)

	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidEvent)
	}
	if !isPIN(in.AdminPassword) {
		return fmt.Errorf("%w: admin password must be exactly 4 digits", ErrInvalidEvent)
	}
	if !isPIN(in.VisitorPassword) {
		return fmt.Errorf("%w: visitor password must be exactly 4 digits", ErrInvalidEvent)
	}
	if in.AdminPassword == in.VisitorPassword {
		return fmt.Errorf("%w: admin password and visitor password must be different", ErrInvalidEvent)
	}
	return nil
}

func isPIN(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Totals are the running counters kept on an event.
type Totals struct {
	Amount   decimal.Decimal
	Visitors int64
}
