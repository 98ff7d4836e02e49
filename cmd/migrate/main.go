package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/straye-as/sds-catalog-api/internal/config"
	"github.com/straye-as/sds-catalog-api/internal/database"
)

var usage = fmt.Sprintf("usage: migrate [%s] [VERSION] | migrate create NAME", strings.Join(database.GooseCommands, "|"))

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s", usage)
	}
	command, arguments := args[0], args[1:]

	// create writes a new file next to the embedded ones and needs no database
	if command == "create" {
		if len(arguments) == 0 {
			return fmt.Errorf("create requires a migration name")
		}
		dir := os.Getenv("MIGRATIONS_DIR")
		if dir == "" {
			dir = "./migrations"
		}
		return goose.Create(nil, dir, arguments[0], "sql")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.Driver == "sqlite" {
		return fmt.Errorf("goose migrations target postgres; run sdsctl migrate for sqlite")
	}
	if command == "reset" && cfg.App.Environment == "production" {
		return fmt.Errorf("reset is disabled in production")
	}

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := database.RunMigrations(ctx, db, command, arguments...); err != nil {
		return err
	}
	fmt.Printf("migrate %s: done\n", command)
	return nil
}
