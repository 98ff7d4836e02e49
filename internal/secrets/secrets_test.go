package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeVault struct {
	values map[string]string
	calls  int
}

func (f *fakeVault) GetSecret(_ context.Context, name string) (string, error) {
	f.calls++
	v, ok := f.values[name]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestResolveSource(t *testing.T) {
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceAuto, "development"))
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceAuto, ""))
	assert.Equal(t, SourceVault, ResolveSource(SourceAuto, "production"))
	assert.Equal(t, SourceVault, ResolveSource(SourceVault, "development"))
}

func TestNewProvider_EnvironmentSource(t *testing.T) {
	p, err := NewProvider(&ProviderConfig{Source: SourceAuto, Environment: "test"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, SourceEnvironment, p.Source())
}

func TestNewProvider_VaultRequiresName(t *testing.T) {
	_, err := NewProvider(&ProviderConfig{Source: SourceVault}, zap.NewNop())
	assert.Error(t, err)
}

func TestProvider_Lookup(t *testing.T) {
	vault := &fakeVault{values: map[string]string{"sds-jwt-secret": "from-vault"}}

	t.Run("environment", func(t *testing.T) {
		p := &Provider{source: SourceEnvironment, getenv: envFrom(map[string]string{"JWT_SECRET": "from-env"}), logger: zap.NewNop()}

		v, err := p.Lookup(context.Background(), JWTSecret)
		require.NoError(t, err)
		assert.Equal(t, "from-env", v)

		_, err = p.Lookup(context.Background(), RedisPassword)
		assert.ErrorIs(t, err, ErrNotSet)
	})

	t.Run("vault", func(t *testing.T) {
		p := &Provider{source: SourceVault, vault: vault, getenv: envFrom(nil), logger: zap.NewNop()}

		v, err := p.Lookup(context.Background(), JWTSecret)
		require.NoError(t, err)
		assert.Equal(t, "from-vault", v)
	})

	t.Run("environment overrides vault", func(t *testing.T) {
		calls := vault.calls
		p := &Provider{source: SourceVault, vault: vault, getenv: envFrom(map[string]string{"JWT_SECRET": "override"}), logger: zap.NewNop()}

		v, err := p.Lookup(context.Background(), JWTSecret)
		require.NoError(t, err)
		assert.Equal(t, "override", v)
		assert.Equal(t, calls, vault.calls)
	})
}

func TestTTLCache(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := newTTLCache(time.Minute)
	c.now = func() time.Time { return now }

	c.put("a", "1")
	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	now = now.Add(2 * time.Minute)
	_, ok = c.get("a")
	assert.False(t, ok)
}
