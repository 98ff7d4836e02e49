package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/straye-as/sds-catalog-api/internal/auth"
	"github.com/straye-as/sds-catalog-api/internal/config"
	"github.com/straye-as/sds-catalog-api/internal/database"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/events"
	"github.com/straye-as/sds-catalog-api/internal/logger"
	"github.com/straye-as/sds-catalog-api/internal/repository"
	"github.com/straye-as/sds-catalog-api/internal/service"
	"github.com/straye-as/sds-catalog-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "sdsctl",
	Short: "catalogue and safety data sheet tool",
	Example: `sdsctl import-csv -f artikelen.csv
sdsctl import-csv -f artikelen.xlsx --dry-run
sdsctl validate-zip -f veiligheidsbladen.zip
sdsctl upload-zip -f veiligheidsbladen.zip
sdsctl export -t alles -o ./exports
sdsctl user create -e admin@example.com -n Beheerder --role admin`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(importCSVCmd(), exportCmd(), templateCmd(), exampleZipCmd())
	rootCmd.AddCommand(validateZipCmd(), uploadZipCmd())
	rootCmd.AddCommand(migrateCmd(), userCmd())

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
}

// app holds the configuration and services a command works with
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	db     *gorm.DB
	store  storage.Storage
	repos  repos
	closer func()
}

type repos struct {
	artikel   *repository.ArtikelRepository
	blad      *repository.VeiligheidsbladRepository
	importRun *repository.ImportRunRepository
	user      *repository.UserRepository
	session   *repository.SessionRepository
}

// newApp loads configuration with secrets and connects to the database.
// Storage is only opened when withStorage is set.
func newApp(ctx context.Context, withStorage bool) (*app, error) {
	basicCfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &app{
		cfg: cfg,
		log: log,
		db:  db,
		repos: repos{
			artikel:   repository.NewArtikelRepository(db),
			blad:      repository.NewVeiligheidsbladRepository(db),
			importRun: repository.NewImportRunRepository(db),
			user:      repository.NewUserRepository(db),
			session:   repository.NewSessionRepository(db),
		},
		closer: func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
			_ = log.Sync()
		},
	}

	if withStorage {
		a.store, err = storage.NewStorage(&cfg.Storage, cfg.App.PublicBaseURL, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
	}

	return a, nil
}

func (a *app) Close() {
	a.closer()
}

func (a *app) importService() *service.BulkImportService {
	return service.NewBulkImportService(a.repos.artikel, a.repos.importRun, config.Bytes(a.cfg.Bulk.MaxCSVSizeMB), a.log)
}

func (a *app) documentService() *service.BulkDocumentService {
	return service.NewBulkDocumentService(
		a.repos.artikel, a.repos.blad, a.repos.importRun, a.store,
		config.Bytes(a.cfg.Bulk.MaxZipSizeMB), config.Bytes(a.cfg.Bulk.MaxSheetSizeMB), a.log,
	)
}

func (a *app) exportService() *service.ExportService {
	return service.NewExportService(a.repos.artikel, a.repos.blad, a.log)
}

func (a *app) authService() *service.AuthService {
	return service.NewAuthService(
		a.repos.user,
		auth.NewDBSessionStore(a.repos.session),
		auth.NewTokenManager(a.cfg.Auth.JWTSecret, a.cfg.Auth.Issuer),
		events.NewHub(a.log),
		service.AuthOptions{
			SessionTTL:        a.cfg.Auth.SessionTTLDuration(),
			MinPasswordLength: a.cfg.Auth.MinPasswordLength,
			AllowSignUp:       true,
			DefaultRole:       domain.UserRole(a.cfg.Auth.DefaultRole),
		},
		a.log,
	)
}

// printJSON writes v indented to the command output
func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
