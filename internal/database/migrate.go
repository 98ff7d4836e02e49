package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/pressly/goose/v3"
	"github.com/straye-as/sds-catalog-api/migrations"
)

// GooseCommands are the goose commands RunMigrations accepts
var GooseCommands = []string{"up", "up-by-one", "up-to", "down", "down-to", "redo", "reset", "status", "version"}

// RunMigrations runs a goose command against the embedded postgres migrations
func RunMigrations(ctx context.Context, db *sql.DB, command string, args ...string) error {
	if !slices.Contains(GooseCommands, command) {
		return fmt.Errorf("unknown migration command %q", command)
	}

	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, ".", args...); err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	return nil
}
