package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/straye-as/sds-catalog-api/internal/domain"
	"go.uber.org/zap"
)

// SessionClearedHeader tells clients their local session state was dropped and they should sign in again
const SessionClearedHeader = "X-Session-Cleared"

// MiddlewareConfig holds the cookie and lookup settings of the middleware
type MiddlewareConfig struct {
	CookieName    string
	CookieSecure  bool
	LookupTimeout time.Duration
}

// Middleware handles authentication for HTTP requests
type Middleware struct {
	tokens *TokenManager
	store  SessionStore
	cfg    MiddlewareConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(tokens *TokenManager, store SessionStore, cfg MiddlewareConfig, logger *zap.Logger) *Middleware {
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 5 * time.Second
	}
	return &Middleware{
		tokens: tokens,
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Authenticate is the main authentication middleware. The token comes from the
// Authorization header or the session cookie and must reference an active session.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		userCtx, err := m.resolve(r)
		if err != nil {
			if IsAuthError(err) {
				m.logger.Warn("authentication failed",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				m.ClearCookie(w)
				w.Header().Set(SessionClearedHeader, "true")
				writeProblem(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, "Unauthorized", err.Error())
				return
			}

			m.logger.Error("session lookup failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			writeProblem(w, http.StatusServiceUnavailable, domain.ErrorTypeInternal, "Service Unavailable", "session store unavailable")
			return
		}

		m.logger.Info("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("user_id", userCtx.UserID.String()),
			zap.String("user_email", userCtx.Email),
			zap.String("role", string(userCtx.Role)),
			zap.Duration("auth_duration", time.Since(start)),
		)

		ctx := WithUserContext(r.Context(), userCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthenticate is middleware that attempts authentication but allows unauthenticated requests
func (m *Middleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, err := m.resolve(r)
		if err == nil {
			next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
			return
		}

		if !errors.Is(err, ErrMissingToken) {
			m.logger.Debug("optional auth: continuing unauthenticated",
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole middleware ensures user has specific role
func (m *Middleware) RequireRole(roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok {
				writeProblem(w, http.StatusForbidden, domain.ErrorTypeForbidden, "Forbidden", "no user context")
				return
			}

			if !userCtx.HasAnyRole(roles...) {
				writeProblem(w, http.StatusForbidden, domain.ErrorTypeForbidden, "Forbidden", "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin middleware ensures user may change the catalogue
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole(domain.RoleAdmin)(next)
}

// SetCookie stores the access token in the HttpOnly session cookie
func (m *Middleware) SetCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie
func (m *Middleware) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest returns the bearer token, falling back to the session cookie
func (m *Middleware) TokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", ErrInvalidToken
		}
		return strings.TrimSpace(parts[1]), nil
	}

	if cookie, err := r.Cookie(m.cfg.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", ErrMissingToken
}

// resolve turns the request credentials into a user context
func (m *Middleware) resolve(r *http.Request) (*UserContext, error) {
	token, err := m.TokenFromRequest(r)
	if err != nil {
		return nil, err
	}

	claims, err := m.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	sessionID, err := claims.SessionID()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(r.Context(), m.cfg.LookupTimeout)
	defer cancel()

	session, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Check(m.now()); err != nil {
		return nil, err
	}
	return NewUserContext(session), nil
}

func writeProblem(w http.ResponseWriter, status int, errType, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   errType,
		Title:  title,
		Status: status,
		Detail: detail,
	})
}
