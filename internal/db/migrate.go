// Package db owns the PostgreSQL schema. Migrations are embedded and applied
// with goose over a database/sql handle opened through lib/pq.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Command is a goose subcommand accepted by Run.
type Command string

const (
	Up      Command = "up"
	Down    Command = "down"
	Status  Command = "status"
	Version Command = "version"
	Reset   Command = "reset"
)

// Open opens a database/sql handle on the lib/pq driver.
func Open(databaseURL string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return conn, nil
}

// Run executes cmd against conn using the embedded migrations.
func Run(ctx context.Context, conn *sql.DB, cmd Command) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	switch cmd {
	case Up:
		return goose.UpContext(ctx, conn, "migrations")
	case Down:
		return goose.DownContext(ctx, conn, "migrations")
	case Status:
		return goose.StatusContext(ctx, conn, "migrations")
	case Version:
		return goose.VersionContext(ctx, conn, "migrations")
	case Reset:
		return goose.ResetContext(ctx, conn, "migrations")
	default:
		return fmt.Errorf("unknown migrate command %q", cmd)
	}
}
