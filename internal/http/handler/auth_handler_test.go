package handler_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/straye-as/sds-catalog-api/internal/auth"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/events"
	"github.com/straye-as/sds-catalog-api/internal/http/handler"
	"github.com/straye-as/sds-catalog-api/internal/repository"
	"github.com/straye-as/sds-catalog-api/internal/service"
	"github.com/straye-as/sds-catalog-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testCookieName = "sds_session"

type authEnv struct {
	db         *gorm.DB
	hub        *events.Hub
	middleware *auth.Middleware
	handler    *handler.AuthHandler
}

func newAuthEnv(t *testing.T, allowSignUp bool) *authEnv {
	t.Helper()
	env := newHandlerEnv(t)

	sessions := auth.NewDBSessionStore(repository.NewSessionRepository(env.db))
	tokens := auth.NewTokenManager("test-secret-with-enough-length", "sds-catalog-test")
	hub := events.NewHub(env.logger)
	authService := service.NewAuthService(repository.NewUserRepository(env.db), sessions, tokens, hub, service.AuthOptions{
		SessionTTL:        time.Hour,
		MinPasswordLength: 8,
		AllowSignUp:       allowSignUp,
		BcryptCost:        bcrypt.MinCost,
	}, env.logger)
	mw := auth.NewMiddleware(tokens, sessions, auth.MiddlewareConfig{CookieName: testCookieName}, env.logger)

	return &authEnv{
		db:         env.db,
		hub:        hub,
		middleware: mw,
		handler:    handler.NewAuthHandler(authService, mw, hub, env.logger),
	}
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// signIn signs the user in through the handler and returns the issued session
func (e *authEnv) signIn(t *testing.T, email string) domain.SessionDTO {
	t.Helper()
	w := httptest.NewRecorder()
	e.handler.SignIn(w, jsonRequest(t, http.MethodPost, "/auth/signin", domain.SignInRequest{
		Email:    email,
		Password: testutil.TestPassword,
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeJSON[domain.SessionDTO](t, w)
}

// authenticated runs h behind the auth middleware with the bearer token
func (e *authEnv) authenticated(h http.HandlerFunc, req *http.Request, token string) *httptest.ResponseRecorder {
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.middleware.Authenticate(h).ServeHTTP(w, req)
	return w
}

// optional runs h behind the optional auth middleware with the bearer token
func (e *authEnv) optional(h http.HandlerFunc, req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.middleware.OptionalAuthenticate(h).ServeHTTP(w, req)
	return w
}

func clearsCookie(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == testCookieName {
			assert.Empty(t, c.Value)
			assert.Negative(t, c.MaxAge)
			return
		}
	}
	t.Errorf("response does not clear the %s cookie", testCookieName)
}

func TestAuthHandler_SignUp(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := newAuthEnv(t, false)
		w := httptest.NewRecorder()

		env.handler.SignUp(w, jsonRequest(t, http.MethodPost, "/auth/signup", domain.SignUpRequest{
			Email:    "nieuw@example.com",
			Password: "long-enough",
		}))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("enabled", func(t *testing.T) {
		env := newAuthEnv(t, true)
		w := httptest.NewRecorder()

		env.handler.SignUp(w, jsonRequest(t, http.MethodPost, "/auth/signup", domain.SignUpRequest{
			Email:    "nieuw@example.com",
			Password: "long-enough",
			Naam:     "Nieuw",
		}))

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		session := decodeJSON[domain.SessionDTO](t, w)
		assert.NotEmpty(t, session.AccessToken)
		assert.Equal(t, "nieuw@example.com", session.User.Email)
	})

	t.Run("invalid email", func(t *testing.T) {
		env := newAuthEnv(t, true)
		w := httptest.NewRecorder()

		env.handler.SignUp(w, jsonRequest(t, http.MethodPost, "/auth/signup", domain.SignUpRequest{
			Email:    "geen-email",
			Password: "long-enough",
		}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_SignIn(t *testing.T) {
	env := newAuthEnv(t, false)
	user := testutil.CreateTestUser(t, env.db, domain.RoleViewer)

	t.Run("sets the session cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.handler.SignIn(w, jsonRequest(t, http.MethodPost, "/auth/signin", domain.SignInRequest{
			Email:    user.Email,
			Password: testutil.TestPassword,
		}))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		session := decodeJSON[domain.SessionDTO](t, w)

		var cookie *http.Cookie
		for _, c := range w.Result().Cookies() {
			if c.Name == testCookieName {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		assert.Equal(t, session.AccessToken, cookie.Value)
		assert.True(t, cookie.HttpOnly)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.handler.SignIn(w, jsonRequest(t, http.MethodPost, "/auth/signin", domain.SignInRequest{
			Email:    user.Email,
			Password: "wrong-password",
		}))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.handler.SignIn(w, httptest.NewRequest(http.MethodPost, "/auth/signin", strings.NewReader("{")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_SessionAndSignOut(t *testing.T) {
	env := newAuthEnv(t, false)
	user := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	signedIn := env.signIn(t, user.Email)

	w := env.authenticated(env.handler.Session, httptest.NewRequest(http.MethodGet, "/auth/session", nil), signedIn.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	session := decodeJSON[domain.SessionDTO](t, w)
	assert.Equal(t, signedIn.SessionID, session.SessionID)
	assert.Equal(t, domain.RoleAdmin, session.User.Role)

	w = env.authenticated(env.handler.SignOut, httptest.NewRequest(http.MethodPost, "/auth/signout", nil), signedIn.AccessToken)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// the revoked session no longer authenticates
	w = env.authenticated(env.handler.Session, httptest.NewRequest(http.MethodGet, "/auth/session", nil), signedIn.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_SignOutTwice(t *testing.T) {
	env := newAuthEnv(t, false)
	user := testutil.CreateTestUser(t, env.db, domain.RoleViewer)
	signedIn := env.signIn(t, user.Email)

	w := env.optional(env.handler.SignOut, httptest.NewRequest(http.MethodPost, "/auth/signout", nil), signedIn.AccessToken)
	assert.Equal(t, http.StatusNoContent, w.Code)
	clearsCookie(t, w)

	var session domain.Session
	require.NoError(t, env.db.First(&session, "id = ?", signedIn.SessionID).Error)
	assert.NotNil(t, session.RevokedAt)

	// the session is already revoked; signing out again still succeeds
	w = env.optional(env.handler.SignOut, httptest.NewRequest(http.MethodPost, "/auth/signout", nil), signedIn.AccessToken)
	assert.Equal(t, http.StatusNoContent, w.Code)
	clearsCookie(t, w)

	w = env.optional(env.handler.SignOut, httptest.NewRequest(http.MethodPost, "/auth/signout", nil), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	clearsCookie(t, w)
}

func TestAuthHandler_Refresh(t *testing.T) {
	env := newAuthEnv(t, false)
	user := testutil.CreateTestUser(t, env.db, domain.RoleViewer)
	signedIn := env.signIn(t, user.Email)

	w := env.authenticated(env.handler.Refresh, httptest.NewRequest(http.MethodPost, "/auth/refresh", nil), signedIn.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	refreshed := decodeJSON[domain.SessionDTO](t, w)
	assert.NotEqual(t, signedIn.SessionID, refreshed.SessionID)

	w = env.authenticated(env.handler.Session, httptest.NewRequest(http.MethodGet, "/auth/session", nil), refreshed.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_UpdateUser(t *testing.T) {
	env := newAuthEnv(t, false)
	user := testutil.CreateTestUser(t, env.db, domain.RoleViewer)
	signedIn := env.signIn(t, user.Email)

	naam := "Nieuwe Naam"
	w := env.authenticated(env.handler.UpdateUser,
		jsonRequest(t, http.MethodPut, "/auth/user", domain.UpdateUserRequest{Naam: &naam}), signedIn.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeJSON[domain.UserDTO](t, w)
	assert.Equal(t, naam, updated.Naam)

	w = env.authenticated(env.handler.UpdateUser,
		jsonRequest(t, http.MethodPut, "/auth/user", domain.UpdateUserRequest{}), signedIn.AccessToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Events(t *testing.T) {
	env := newAuthEnv(t, false)
	user := testutil.CreateTestUser(t, env.db, domain.RoleViewer)
	signedIn := env.signIn(t, user.Email)

	srv := httptest.NewServer(env.middleware.Authenticate(http.HandlerFunc(env.handler.Events)))
	t.Cleanup(func() {
		env.hub.Close()
		srv.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+signedIn.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	assert.Equal(t, "event: connected", readEventLine(t, reader))

	env.hub.Publish(events.AuthEvent{Type: events.UserUpdated, UserID: user.ID})
	assert.Equal(t, "event: USER_UPDATED", readEventLine(t, reader))
	data := readEventLine(t, reader)
	assert.True(t, strings.HasPrefix(data, "data: "), data)
	assert.Contains(t, data, user.ID.String())
}

// readEventLine returns the next non-empty line of an event stream
func readEventLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line != "" {
			return line
		}
	}
}
