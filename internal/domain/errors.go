package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("admin access required")
	ErrVersionConflict = errors.New("form was changed concurrently")
	ErrTotalsChanged   = errors.New("event totals changed concurrently")
	ErrInvalidEvent    = errors.New("invalid event")
	ErrInvalidRole     = errors.New("role must be admin or visitor")
	ErrWrongPassword   = errors.New("incorrect password")
)
