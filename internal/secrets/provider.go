// Package secrets resolves credentials for the catalogue API from the
// environment or from Azure Key Vault.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// ErrNotSet is returned when a secret has no value in the selected source
var ErrNotSet = errors.New("secret not set")

// SecretSource defines where secrets are loaded from
type SecretSource string

const (
	SourceEnvironment SecretSource = "environment"
	SourceVault       SecretSource = "vault"
	// SourceAuto picks the vault outside development
	SourceAuto        SecretSource = "auto"
)

// Ref names one secret in both sources
type Ref struct {
	Vault string
	Env   string
}

// Secrets resolved into the configuration
var (
	DatabaseHost      = Ref{Vault: "POSTGRES-MAIN-HOST", Env: "DATABASE_HOST"}
	DatabaseUser      = Ref{Vault: "POSTGRES-MAIN-USER", Env: "DATABASE_USER"}
	DatabasePassword  = Ref{Vault: "POSTGRES-MAIN-PASSWORD", Env: "DATABASE_PASSWORD"}
	JWTSecret         = Ref{Vault: "sds-jwt-secret", Env: "JWT_SECRET"}
	StorageConnString = Ref{Vault: "storage-connection-string", Env: "STORAGE_CLOUDCONNECTIONSTRING"}
	S3AccessKey       = Ref{Vault: "s3-access-key", Env: "STORAGE_S3ACCESSKEY"}
	S3SecretKey       = Ref{Vault: "s3-secret-key", Env: "STORAGE_S3SECRETKEY"}
	RedisPassword     = Ref{Vault: "redis-password", Env: "REDIS_PASSWORD"}
)

type secretGetter interface {
	GetSecret(ctx context.Context, secretName string) (string, error)
}

// Provider resolves secrets. An environment variable always wins over the vault.
type Provider struct {
	source SecretSource
	vault  secretGetter
	getenv func(string) string
	logger *zap.Logger
}

// ProviderConfig holds configuration for the secrets provider
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ResolveSource turns SourceAuto into a concrete source for the given environment
func ResolveSource(source SecretSource, environment string) SecretSource {
	if source != SourceAuto {
		return source
	}
	switch environment {
	case "development", "local", "test", "":
		return SourceEnvironment
	default:
		return SourceVault
	}
}

// NewProvider creates a provider; a vault source connects to Key Vault right away
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	p := &Provider{
		source: ResolveSource(cfg.Source, cfg.Environment),
		getenv: os.Getenv,
		logger: logger,
	}

	if p.source == SourceVault {
		if cfg.VaultName == "" {
			return nil, errors.New("vault name required when using vault secret source")
		}
		vault, err := NewVaultClient(&VaultConfig{
			VaultName:    cfg.VaultName,
			CacheEnabled: cfg.CacheEnabled,
			CacheTTL:     cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		p.vault = vault
	}

	logger.Info("Secrets provider initialized",
		zap.String("source", string(p.source)),
		zap.String("environment", cfg.Environment),
	)
	return p, nil
}

// Lookup resolves ref, trying its environment variable before the vault
func (p *Provider) Lookup(ctx context.Context, ref Ref) (string, error) {
	if ref.Env != "" {
		if v := p.getenv(ref.Env); v != "" {
			p.logger.Debug("Using environment variable override", zap.String("env_name", ref.Env))
			return v, nil
		}
	}

	switch p.source {
	case SourceEnvironment:
		return "", fmt.Errorf("%w: environment variable %q", ErrNotSet, ref.Env)
	case SourceVault:
		if p.vault == nil {
			return "", errors.New("vault client not initialized")
		}
		return p.vault.GetSecret(ctx, ref.Vault)
	default:
		return "", fmt.Errorf("unknown secret source: %s", p.source)
	}
}

// Source returns the resolved secret source
func (p *Provider) Source() SecretSource {
	return p.source
}
