package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/straye-as/sds-catalog-api/docs"
	"github.com/straye-as/sds-catalog-api/internal/auth"
	"github.com/straye-as/sds-catalog-api/internal/config"
	"github.com/straye-as/sds-catalog-api/internal/database"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/events"
	"github.com/straye-as/sds-catalog-api/internal/http/handler"
	"github.com/straye-as/sds-catalog-api/internal/http/middleware"
	"github.com/straye-as/sds-catalog-api/internal/http/router"
	"github.com/straye-as/sds-catalog-api/internal/jobs"
	"github.com/straye-as/sds-catalog-api/internal/logger"
	"github.com/straye-as/sds-catalog-api/internal/repository"
	"github.com/straye-as/sds-catalog-api/internal/service"
	"github.com/straye-as/sds-catalog-api/internal/storage"
	"go.uber.org/zap"
)

// @title SDS Catalog API
// @version 1.0
// @description Article catalogue with multilingual safety data sheets, bulk import and export

// @contact.name API Support
// @contact.email support@straye.io

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Session token as "Bearer <token>"; the session cookie is accepted as well

const jobTimeout = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	if u, err := url.Parse(basicCfg.App.PublicBaseURL); err == nil && u.Host != "" {
		docs.SwaggerInfo.Host = u.Host
	}

	// In development secrets come from the environment, elsewhere from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	fileStorage, err := storage.NewStorage(&cfg.Storage, cfg.App.PublicBaseURL, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Repositories
	artikelRepo := repository.NewArtikelRepository(db)
	bladRepo := repository.NewVeiligheidsbladRepository(db)
	importRunRepo := repository.NewImportRunRepository(db)
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// Sessions live in the database unless redis is configured
	var redisClient *redis.Client
	var sessionStore auth.SessionStore
	if cfg.Auth.SessionStore == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		sessionStore = auth.NewRedisSessionStore(redisClient)
		log.Info("Session store initialized", zap.String("store", "redis"), zap.String("addr", cfg.Redis.Addr))
	} else {
		sessionStore = auth.NewDBSessionStore(sessionRepo)
		log.Info("Session store initialized", zap.String("store", "database"))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	hub := events.NewHub(log)

	// Services
	artikelService := service.NewArtikelService(artikelRepo, bladRepo, log)
	bladService := service.NewVeiligheidsbladService(
		artikelRepo, bladRepo, fileStorage,
		config.Bytes(cfg.Bulk.MaxSheetSizeMB), cfg.Storage.SignedURLTTLDuration(), log,
	)
	documentService := service.NewBulkDocumentService(
		artikelRepo, bladRepo, importRunRepo, fileStorage,
		config.Bytes(cfg.Bulk.MaxZipSizeMB), config.Bytes(cfg.Bulk.MaxSheetSizeMB), log,
	)
	importService := service.NewBulkImportService(artikelRepo, importRunRepo, config.Bytes(cfg.Bulk.MaxCSVSizeMB), log)
	exportService := service.NewExportService(artikelRepo, bladRepo, log)
	importRunService := service.NewImportRunService(importRunRepo)
	authService := service.NewAuthService(userRepo, sessionStore, tokens, hub, service.AuthOptions{
		SessionTTL:        cfg.Auth.SessionTTLDuration(),
		MinPasswordLength: cfg.Auth.MinPasswordLength,
		AllowSignUp:       cfg.Auth.AllowSignUp,
		DefaultRole:       domain.UserRole(cfg.Auth.DefaultRole),
	}, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(tokens, sessionStore, auth.MiddlewareConfig{
		CookieName:    cfg.Auth.CookieName,
		CookieSecure:  cfg.Auth.CookieSecure,
		LookupTimeout: cfg.Auth.SessionLookupTimeoutDuration(),
	}, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	handlers := router.Handlers{
		System:  handler.NewSystemHandler(db, redisClient, log),
		Auth:    handler.NewAuthHandler(authService, authMiddleware, hub, log),
		Artikel: handler.NewArtikelHandler(artikelService, log),
		Veiligheidsblad: handler.NewVeiligheidsbladHandler(
			bladService, artikelService, config.Bytes(cfg.Bulk.MaxSheetSizeMB), log,
		),
		Bulk: handler.NewBulkHandler(documentService, importService, exportService, importRunService, handler.BulkLimits{
			MaxZipSize: config.Bytes(cfg.Bulk.MaxZipSizeMB),
			MaxCSVSize: config.Bytes(cfg.Bulk.MaxCSVSizeMB),
		}, log),
	}
	if local, ok := fileStorage.(*storage.LocalStorage); ok {
		handlers.Storage = handler.NewStorageHandler(local, log)
	}

	rt := router.NewRouter(cfg, log, authMiddleware, rateLimiter, handlers)

	// Maintenance jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		if cfg.Jobs.SessionCleanupSchedule != "" && cfg.Auth.SessionStore != "redis" {
			retention := time.Duration(cfg.Jobs.SessionRetentionHours) * time.Hour
			if err := jobs.RegisterSessionCleanupJob(scheduler, sessionRepo, retention, jobTimeout, cfg.Jobs.SessionCleanupSchedule, log); err != nil {
				log.Error("Failed to register session cleanup job", zap.Error(err))
			}
		}
		if cfg.Jobs.LatestSyncSchedule != "" {
			if err := jobs.RegisterLatestSyncJob(scheduler, bladService, jobTimeout, cfg.Jobs.LatestSyncSchedule, log); err != nil {
				log.Error("Failed to register latest sync job", zap.Error(err))
			}
		}

		scheduler.Start()
		for _, job := range scheduler.Jobs() {
			log.Info("Scheduled job", zap.String("job", job.Name), zap.String("schedule", job.Schedule), zap.Time("next_run", job.Next))
		}
	} else {
		log.Info("Maintenance jobs disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Event streams never finish on their own
		hub.Close()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				log.Warn("Error closing redis connection", zap.Error(err))
			}
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
