package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/straye-as/sds-catalog-api/internal/database"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [goose command] [VERSION]",
		Short: "Create or update the database schema",
		Long: `SQLite databases are migrated from the models. PostgreSQL databases run the
embedded goose migrations; the command defaults to "up".`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Database.Driver == "sqlite" {
				if len(args) > 0 && args[0] != "up" {
					return fmt.Errorf("sqlite databases only support migrate up")
				}
				if err := database.AutoMigrate(a.db); err != nil {
					return fmt.Errorf("failed to migrate: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			}

			command := "up"
			if len(args) > 0 {
				command = args[0]
			}
			sqlDB, err := a.db.DB()
			if err != nil {
				return fmt.Errorf("failed to get database handle: %w", err)
			}
			if err := database.RunMigrations(cmd.Context(), sqlDB, command, args[min(len(args), 1):]...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", command)
			return nil
		},
	}
}
