package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/straye-as/sds-catalog-api/internal/secrets"
	"go.uber.org/zap"
)

// developmentSecret signs tokens when no JWT secret is configured in development
const developmentSecret = "development-only-secret-change-me"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Bulk      BulkConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
	// PublicBaseURL is the externally reachable base URL of the API, used for local signed URLs
	PublicBaseURL string
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite"
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// AuthConfig holds session and token settings
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	// SessionTTL is the lifetime of a session in minutes
	SessionTTL int
	// SessionLookupTimeout bounds the initial session fetch per request (seconds)
	SessionLookupTimeout int
	// SessionStore is "database" or "redis"
	SessionStore      string
	CookieName        string
	CookieSecure      bool
	MinPasswordLength int
	// AllowSignUp controls whether the public sign-up endpoint is open
	AllowSignUp bool
	// DefaultRole is the role given to users created through sign-up
	DefaultRole string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	// Mode is "local", "azure" or "s3"
	Mode          string
	Bucket        string
	LocalBasePath string
	// LocalSigningKey signs local download URLs; falls back to the JWT secret
	LocalSigningKey       string
	CloudConnectionString string
	S3Endpoint            string
	S3AccessKey           string
	S3SecretKey           string
	S3UseSSL              bool
	S3Region              string
	// SignedURLTTL is the lifetime of signed download URLs in seconds
	SignedURLTTL int
}

// BulkConfig holds upload limits for bulk and single file operations
type BulkConfig struct {
	MaxZipSizeMB   int64
	MaxCSVSizeMB   int64
	MaxSheetSizeMB int64
}

type SecretsConfig struct {
	Source       string // environment, vault or auto
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

// CORSConfig lists the browser origins of the admin front end. An empty list
// allows every origin in development and none elsewhere.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int // seconds
}

type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	FrameOptions          string // empty disables X-Frame-Options
	ContentTypeNosniff    bool
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// RateLimitConfig holds per-minute request budgets: RequestsPerMinute per IP,
// RequestsPerMinuteAuth per signed-in user and AuthAttemptsPerMinute for
// sign-in and sign-up per IP
type RateLimitConfig struct {
	Enabled               bool
	RequestsPerMinute     int
	RequestsPerMinuteAuth int
	AuthAttemptsPerMinute int
	WhitelistIPs          []string
	WhitelistPaths        []string
}

// JobsConfig holds cron schedules for maintenance jobs; an empty schedule disables the job
type JobsConfig struct {
	Enabled                bool
	SessionCleanupSchedule string
	// SessionRetentionHours keeps revoked/expired sessions around for auditing before deletion
	SessionRetentionHours int
	LatestSyncSchedule    string
}

// ConnectionString is the libpq keyword/value DSN used by gorm and goose
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration { return seconds(d.ConnMaxLifetime) }

func (s *ServerConfig) ReadTimeoutDuration() time.Duration { return seconds(s.ReadTimeout) }
func (s *ServerConfig) WriteTimeoutDuration() time.Duration { return seconds(s.WriteTimeout) }

// RequestTimeoutDuration bounds non-streaming handlers; zero or less means one minute
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	if s.RequestTimeout <= 0 {
		return time.Minute
	}
	return seconds(s.RequestTimeout)
}

// SessionTTLDuration is configured in minutes
func (a *AuthConfig) SessionTTLDuration() time.Duration {
	return time.Duration(a.SessionTTL) * time.Minute
}

func (a *AuthConfig) SessionLookupTimeoutDuration() time.Duration {
	return seconds(a.SessionLookupTimeout)
}

func (s *StorageConfig) SignedURLTTLDuration() time.Duration { return seconds(s.SignedURLTTL) }

// Bytes converts a megabyte limit to bytes
func Bytes(mb int64) int64 {
	return mb << 20
}

// Validate checks settings that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Storage.Mode {
	case "local", "azure", "cloud", "s3", "minio":
	default:
		return fmt.Errorf("unsupported storage mode: %s", c.Storage.Mode)
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Auth.SessionStore {
	case "database", "redis":
	default:
		return fmt.Errorf("unsupported session store: %s", c.Auth.SessionStore)
	}

	if c.Auth.JWTSecret == "" {
		if c.App.Environment == "production" || c.App.Environment == "staging" {
			return fmt.Errorf("auth.jwtSecret is required in %s", c.App.Environment)
		}
	}

	if c.Auth.MinPasswordLength < 6 {
		return fmt.Errorf("auth.minPasswordLength must be at least 6")
	}

	return nil
}

// Load reads config.json (optional), .env and the environment. Vault secrets
// are resolved by LoadWithSecrets.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	}

	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	if cfg.Auth.JWTSecret == "" && cfg.App.Environment == "development" {
		cfg.Auth.JWTSecret = developmentSecret
	}

	if cfg.Storage.LocalSigningKey == "" {
		cfg.Storage.LocalSigningKey = cfg.Auth.JWTSecret
	}

	return &cfg, nil
}

// LoadWithSecrets loads configuration and resolves secrets.
//
// secrets.source picks the source: "environment", "vault", or "auto" (vault
// in staging and production when a vault name is configured). Environment
// variables such as JWT_SECRET always take precedence over vault values.
// USE_AZURE_KEY_VAULT=true is accepted as shorthand for source "vault".
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	source := secrets.ResolveSource(secrets.SecretSource(cfg.Secrets.Source), cfg.App.Environment)
	if strings.EqualFold(os.Getenv("USE_AZURE_KEY_VAULT"), "true") {
		source = secrets.SourceVault
	}

	if source != secrets.SourceVault {
		logger.Info("Using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		if secrets.SecretSource(cfg.Secrets.Source) == secrets.SourceAuto && os.Getenv("USE_AZURE_KEY_VAULT") == "" {
			logger.Warn("No key vault configured, using environment variables for secrets",
				zap.String("environment", cfg.App.Environment),
			)
			return cfg, nil
		}
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when secrets come from the vault")
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	if err := applySecrets(ctx, cfg, provider); err != nil {
		return nil, err
	}

	logger.Info("Secrets loaded from key vault", zap.String("key_vault_name", cfg.Secrets.KeyVaultName))
	return cfg, nil
}

// secretSource is the part of secrets.Provider used to resolve configuration secrets
type secretSource interface {
	Lookup(ctx context.Context, ref secrets.Ref) (string, error)
}

func applySecrets(ctx context.Context, cfg *Config, provider secretSource) error {
	jwtSecret, err := provider.Lookup(ctx, secrets.JWTSecret)
	if err != nil || jwtSecret == "" {
		return fmt.Errorf("failed to load JWT secret: %w", err)
	}
	cfg.Auth.JWTSecret = jwtSecret
	if cfg.Storage.LocalSigningKey == "" || cfg.Storage.LocalSigningKey == developmentSecret {
		cfg.Storage.LocalSigningKey = jwtSecret
	}

	// optional: a missing value keeps what the config file or defaults set
	optional := []struct {
		ref    secrets.Ref
		target *string
	}{
		{secrets.DatabaseHost, &cfg.Database.Host},
		{secrets.DatabaseUser, &cfg.Database.User},
		{secrets.DatabasePassword, &cfg.Database.Password},
		{secrets.StorageConnString, &cfg.Storage.CloudConnectionString},
		{secrets.S3AccessKey, &cfg.Storage.S3AccessKey},
		{secrets.S3SecretKey, &cfg.Storage.S3SecretKey},
		{secrets.RedisPassword, &cfg.Redis.Password},
	}
	for _, o := range optional {
		if v, err := provider.Lookup(ctx, o.ref); err == nil && v != "" {
			*o.target = v
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "SDS Catalog API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.publicBaseURL", "http://localhost:8080")

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "sds_catalog")
	v.SetDefault("database.user", "sds_user")
	v.SetDefault("database.password", "sds_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.sqlitePath", "./sds_catalog.db")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)

	// Auth defaults
	v.SetDefault("auth.issuer", "sds-catalog-api")
	v.SetDefault("auth.sessionTTL", 60*24) // 24 hours
	v.SetDefault("auth.sessionLookupTimeout", 5)
	v.SetDefault("auth.sessionStore", "database")
	v.SetDefault("auth.cookieName", "sds_session")
	v.SetDefault("auth.cookieSecure", false)
	v.SetDefault("auth.minPasswordLength", 6)
	v.SetDefault("auth.allowSignUp", true)
	v.SetDefault("auth.defaultRole", "viewer")

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// Secrets defaults
	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300) // 5 minutes

	// Storage defaults
	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.bucket", "safety-docs")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.s3UseSSL", true)
	v.SetDefault("storage.signedURLTTL", 3600)

	// Bulk defaults
	v.SetDefault("bulk.maxZipSizeMB", 50)
	v.SetDefault("bulk.maxCSVSizeMB", 5)
	v.SetDefault("bulk.maxSheetSizeMB", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Server defaults
	v.SetDefault("server.readTimeout", 60)
	v.SetDefault("server.writeTimeout", 300) // bulk uploads run inside the request
	v.SetDefault("server.requestTimeout", 300)
	v.SetDefault("server.enableSwagger", true)

	// CORS defaults - restrictive by default
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Content-Disposition", "Location", "X-Request-ID", "X-Session-Cleared"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	// Security header defaults - secure by default
	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000) // 1 year
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 60)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 240)
	v.SetDefault("rateLimit.authAttemptsPerMinute", 10)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready"})

	// Jobs defaults
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.sessionCleanupSchedule", "0 3 * * *")
	v.SetDefault("jobs.sessionRetentionHours", 24*7)
	v.SetDefault("jobs.latestSyncSchedule", "*/30 * * * *")
}
