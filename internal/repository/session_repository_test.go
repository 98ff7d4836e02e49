package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/repository"
	"github.com/straye-as/sds-catalog-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// User Repository Tests
// ============================================================================

func TestUserRepository_EmailIsCaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	user := &domain.User{Email: "  Admin@Example.COM ", PasswordHash: "x", Role: domain.RoleAdmin}
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, "admin@example.com", user.Email)

	found, err := repo.GetByEmail(ctx, "ADMIN@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestUserRepository_TouchLastSignInAndRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db, domain.RoleViewer)

	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.TouchLastSignIn(ctx, user.ID, at))
	require.NoError(t, repo.UpdateRole(ctx, user.ID, domain.RoleAdmin))

	found, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastSignInAt)
	assert.True(t, at.Equal(*found.LastSignInAt))
	assert.Equal(t, domain.RoleAdmin, found.Role)

	assert.Error(t, repo.UpdateRole(ctx, uuid.New(), domain.RoleAdmin))
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db, domain.RoleViewer)

	naam := "Nieuwe Naam"
	require.NoError(t, repo.UpdateProfile(ctx, user.ID, &naam, nil))
	require.NoError(t, repo.UpdateProfile(ctx, user.ID, nil, nil))

	found, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nieuwe Naam", found.Naam)
	assert.Equal(t, user.PasswordHash, found.PasswordHash)

	assert.Error(t, repo.UpdateProfile(ctx, uuid.New(), &naam, nil))
}

// ============================================================================
// Session Repository Tests
// ============================================================================

func newSession(user *domain.User, expires time.Time) *domain.Session {
	return &domain.Session{ID: uuid.New(), UserID: user.ID, ExpiresAt: expires}
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSessionRepository(db)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db, domain.RoleViewer)

	session := newSession(user, time.Now().Add(time.Hour))
	session.UserAgent = "go-test"
	require.NoError(t, repo.Create(ctx, session))

	found, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, found.User)
	assert.Equal(t, user.Email, found.User.Email)
	assert.True(t, found.IsActive(time.Now()))
}

func TestSessionRepository_Revoke(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSessionRepository(db)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db, domain.RoleViewer)
	session := newSession(user, time.Now().Add(time.Hour))
	require.NoError(t, repo.Create(ctx, session))

	first := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Revoke(ctx, session.ID, first))
	require.NoError(t, repo.Revoke(ctx, session.ID, first.Add(time.Hour)))

	found, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, found.RevokedAt)
	assert.True(t, first.Equal(*found.RevokedAt))
	assert.False(t, found.IsActive(time.Now()))
}

func TestSessionRepository_MarkRefreshed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSessionRepository(db)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db, domain.RoleViewer)
	session := newSession(user, time.Now().Add(time.Hour))
	require.NoError(t, repo.Create(ctx, session))

	require.NoError(t, repo.MarkRefreshed(ctx, session.ID, time.Now().UTC()))

	found, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.NotNil(t, found.RefreshedAt)
	assert.NotNil(t, found.RevokedAt)
}

func TestSessionRepository_DeleteStale(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSessionRepository(db)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db, domain.RoleViewer)
	now := time.Now().UTC()

	expired := newSession(user, now.Add(-48*time.Hour))
	revoked := newSession(user, now.Add(time.Hour))
	recentlyRevoked := newSession(user, now.Add(time.Hour))
	active := newSession(user, now.Add(time.Hour))
	for _, s := range []*domain.Session{expired, revoked, recentlyRevoked, active} {
		require.NoError(t, repo.Create(ctx, s))
	}
	require.NoError(t, repo.Revoke(ctx, revoked.ID, now.Add(-48*time.Hour)))
	require.NoError(t, repo.Revoke(ctx, recentlyRevoked.ID, now))

	n, err := repo.DeleteStale(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.GetByID(ctx, active.ID)
	assert.NoError(t, err)
	_, err = repo.GetByID(ctx, recentlyRevoked.ID)
	assert.NoError(t, err)
}

// ============================================================================
// Import Run Repository Tests
// ============================================================================

func TestImportRunRepository_CreateListGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewImportRunRepository(db)
	ctx := context.Background()

	older := &domain.ImportRun{
		Kind:         domain.ImportKindArtikelenCSV,
		Bestandsnaam: "artikelen.csv",
		Total:        3,
		SuccessCount: 2,
		ErrorCount:   1,
		Report:       []byte(`{"success":2}`),
		StartedAt:    t0,
		FinishedAt:   t0.Add(time.Second),
	}
	newer := &domain.ImportRun{
		Kind:         domain.ImportKindVeiligheidsbladenZip,
		Bestandsnaam: "bladen.zip",
		Report:       []byte(`{"documents":[]}`),
		StartedAt:    t0.Add(time.Hour),
		FinishedAt:   t0.Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	runs, total, err := repo.List(ctx, 1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Empty(t, runs[0].Report, "list omits reports")

	runs, total, err = repo.List(ctx, 1, 10, domain.ImportKindArtikelenCSV)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].SuccessCount)

	found, err := repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":2}`, string(found.Report))
}
