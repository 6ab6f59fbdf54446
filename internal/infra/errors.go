package infra

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// IsNoRows reports whether err means a query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
