package domain

import "strings"

// Role is the access level a session was opened with.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleVisitor Role = "visitor"
)

// ParseRole validates a wire value.
func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleAdmin, RoleVisitor:
		return r, nil
	default:
		return "", ErrInvalidRole
	}
}

// Access is the resolved authorization context of a caller. It is passed
// explicitly into every service call.
type Access struct {
	EventID string
	Role    Role
}

// IsAdmin reports whether the caller may mutate eventID.
func (a Access) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Allows reports whether the caller holds any session for eventID.
func (a Access) Allows(eventID string) bool {
	return a.EventID != "" && a.EventID == eventID && (a.Role == RoleAdmin || a.Role == RoleVisitor)
}
