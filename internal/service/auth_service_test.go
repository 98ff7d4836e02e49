package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/straye-as/sds-catalog-api/internal/auth"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/events"
	"github.com/straye-as/sds-catalog-api/internal/repository"
	"github.com/straye-as/sds-catalog-api/internal/service"
	"github.com/straye-as/sds-catalog-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	*fixture
	sessions *auth.DBSessionStore
	tokens   *auth.TokenManager
	hub      *events.Hub
	svc      *service.AuthService
}

func newAuthFixture(t *testing.T, allowSignUp bool) *authFixture {
	t.Helper()
	f := newFixture(t)
	sessions := auth.NewDBSessionStore(repository.NewSessionRepository(f.db))
	tokens := auth.NewTokenManager("test-secret-with-enough-length", "sds-catalog-test")
	hub := events.NewHub(f.logger)

	svc := service.NewAuthService(f.userRepo, sessions, tokens, hub, service.AuthOptions{
		SessionTTL:        time.Hour,
		MinPasswordLength: 8,
		AllowSignUp:       allowSignUp,
		BcryptCost:        bcrypt.MinCost,
	}, f.logger)

	return &authFixture{fixture: f, sessions: sessions, tokens: tokens, hub: hub, svc: svc}
}

// userContext resolves an issued token the way the auth middleware does
func (f *authFixture) userContext(t *testing.T, token string) *auth.UserContext {
	t.Helper()
	claims, err := f.tokens.Validate(token)
	require.NoError(t, err)
	id, err := claims.SessionID()
	require.NoError(t, err)
	session, err := f.sessions.Get(context.Background(), id)
	require.NoError(t, err)
	require.NoError(t, session.Check(time.Now()))
	return auth.NewUserContext(session)
}

func nextEvent(t *testing.T, c *events.Client) events.AuthEvent {
	t.Helper()
	select {
	case e := <-c.Events:
		return e
	case <-time.After(time.Second):
		t.Fatal("no auth event received")
		return events.AuthEvent{}
	}
}

var testClient = service.ClientInfo{UserAgent: "go-test", IPAddress: "127.0.0.1"}

// ============================================================================
// Sign up and sign in
// ============================================================================

func TestAuthService_SignUp(t *testing.T) {
	f := newAuthFixture(t, true)
	ctx := context.Background()

	session, err := f.svc.SignUp(ctx, &domain.SignUpRequest{
		Email:    " New.User@Example.com ",
		Password: "long-enough",
		Naam:     "Nieuwe Gebruiker",
	}, testClient)
	require.NoError(t, err)

	assert.NotEmpty(t, session.AccessToken)
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, "new.user@example.com", session.User.Email)
	assert.Equal(t, domain.RoleViewer, session.User.Role)
	assert.NotNil(t, session.User.LastSignInAt)

	userCtx := f.userContext(t, session.AccessToken)
	assert.Equal(t, session.SessionID, userCtx.SessionID)
	assert.Equal(t, session.User.ID, userCtx.UserID)
}

func TestAuthService_SignUp_Rejects(t *testing.T) {
	f := newAuthFixture(t, true)
	ctx := context.Background()
	existing := testutil.CreateTestUser(t, f.db, domain.RoleViewer)

	tests := []struct {
		name    string
		req     domain.SignUpRequest
		wantErr error
	}{
		{"short password", domain.SignUpRequest{Email: "a@example.com", Password: "short"}, service.ErrInvalidInput},
		{"bad email", domain.SignUpRequest{Email: "not-an-email", Password: "long-enough"}, service.ErrInvalidInput},
		{"taken email", domain.SignUpRequest{Email: existing.Email, Password: "long-enough"}, service.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SignUp(ctx, &tt.req, testClient)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthService_SignUpDisabled(t *testing.T) {
	f := newAuthFixture(t, false)

	_, err := f.svc.SignUp(context.Background(), &domain.SignUpRequest{
		Email:    "someone@example.com",
		Password: "long-enough",
	}, testClient)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestAuthService_SignIn(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, f.db, domain.RoleAdmin)
	sub := f.hub.Subscribe(user.ID)
	defer f.hub.Unsubscribe(sub.ID)

	session, err := f.svc.SignIn(ctx, &domain.SignInRequest{Email: user.Email, Password: testutil.TestPassword}, testClient)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, session.User.Role)

	event := nextEvent(t, sub)
	assert.Equal(t, events.SignedIn, event.Type)
	assert.Equal(t, session.SessionID, event.SessionID)

	_, err = f.svc.SignIn(ctx, &domain.SignInRequest{Email: user.Email, Password: "wrong-password"}, testClient)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = f.svc.SignIn(ctx, &domain.SignInRequest{Email: "nobody@example.com", Password: "whatever"}, testClient)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

// ============================================================================
// Session lifecycle
// ============================================================================

func TestAuthService_RefreshRevokesOldSession(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, f.db, domain.RoleViewer)

	first, err := f.svc.SignIn(ctx, &domain.SignInRequest{Email: user.Email, Password: testutil.TestPassword}, testClient)
	require.NoError(t, err)
	current := f.userContext(t, first.AccessToken)

	sub := f.hub.Subscribe(user.ID)
	defer f.hub.Unsubscribe(sub.ID)

	second, err := f.svc.Refresh(ctx, current, testClient)
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, events.TokenRefreshed, nextEvent(t, sub).Type)

	old, err := f.sessions.Get(ctx, first.SessionID)
	require.NoError(t, err)
	assert.ErrorIs(t, old.Check(time.Now()), auth.ErrSessionRevoked)
	assert.NotNil(t, old.RefreshedAt)

	f.userContext(t, second.AccessToken)
}

func TestAuthService_SignOut(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, f.db, domain.RoleViewer)

	session, err := f.svc.SignIn(ctx, &domain.SignInRequest{Email: user.Email, Password: testutil.TestPassword}, testClient)
	require.NoError(t, err)

	sub := f.hub.Subscribe(user.ID)
	defer f.hub.Unsubscribe(sub.ID)

	require.NoError(t, f.svc.SignOut(ctx, session.SessionID, user.ID))
	assert.Equal(t, events.SignedOut, nextEvent(t, sub).Type)

	stored, err := f.sessions.Get(ctx, session.SessionID)
	require.NoError(t, err)
	assert.ErrorIs(t, stored.Check(time.Now()), auth.ErrSessionRevoked)

	// Signing out twice is harmless
	assert.NoError(t, f.svc.SignOut(ctx, session.SessionID, user.ID))
}

func TestAuthService_Session(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, f.db, domain.RoleViewer)

	signedIn, err := f.svc.SignIn(ctx, &domain.SignInRequest{Email: user.Email, Password: testutil.TestPassword}, testClient)
	require.NoError(t, err)

	session, err := f.svc.Session(ctx, f.userContext(t, signedIn.AccessToken))
	require.NoError(t, err)
	assert.Empty(t, session.AccessToken)
	assert.Equal(t, signedIn.SessionID, session.SessionID)
	assert.Equal(t, user.Email, session.User.Email)
}

// ============================================================================
// Account changes
// ============================================================================

func TestAuthService_UpdateUser(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, f.db, domain.RoleViewer)

	signedIn, err := f.svc.SignIn(ctx, &domain.SignInRequest{Email: user.Email, Password: testutil.TestPassword}, testClient)
	require.NoError(t, err)
	current := f.userContext(t, signedIn.AccessToken)

	sub := f.hub.Subscribe(user.ID)
	defer f.hub.Unsubscribe(sub.ID)

	naam := "  Andere Naam "
	password := "a-new-password"
	updated, err := f.svc.UpdateUser(ctx, current, &domain.UpdateUserRequest{Naam: &naam, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "Andere Naam", updated.Naam)
	assert.Equal(t, events.UserUpdated, nextEvent(t, sub).Type)

	_, err = f.svc.SignIn(ctx, &domain.SignInRequest{Email: user.Email, Password: testutil.TestPassword}, testClient)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = f.svc.SignIn(ctx, &domain.SignInRequest{Email: user.Email, Password: password}, testClient)
	assert.NoError(t, err)

	_, err = f.svc.UpdateUser(ctx, current, &domain.UpdateUserRequest{})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	short := "short"
	_, err = f.svc.UpdateUser(ctx, current, &domain.UpdateUserRequest{Password: &short})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestAuthService_CreateUserAndSetRole(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()

	created, err := f.svc.CreateUser(ctx, "beheer@example.com", "long-enough", "Beheer", domain.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleViewer, created.Role)

	require.NoError(t, f.svc.SetRole(ctx, "BEHEER@example.com", domain.RoleAdmin))
	found, err := f.userRepo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, found.Role)

	_, err = f.svc.CreateUser(ctx, "x@example.com", "long-enough", "", domain.UserRole("owner"))
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.SetRole(ctx, "missing@example.com", domain.RoleAdmin), service.ErrNotFound)
}

// ============================================================================
// Import runs
// ============================================================================

func TestImportRunService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateTestArtikel(t, f.db, "ART001", "Een")

	bulkSvc := newBulkDocumentService(f)
	uploaded, err := bulkSvc.UploadArchive(ctx, "bladen.zip", buildZip(t, entry("ART001_NL_V1.pdf", "x")), nil)
	require.NoError(t, err)
	require.NotNil(t, uploaded.ImportRunID)

	svc := service.NewImportRunService(f.importRunRepo)

	page, err := svc.List(ctx, 0, 0, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 1, page.Page)

	run, err := svc.GetByID(ctx, *uploaded.ImportRunID)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportKindVeiligheidsbladenZip, run.Kind)
	assert.NotNil(t, run.Report)

	_, err = svc.List(ctx, 1, 20, domain.ImportKind("unknown"))
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
