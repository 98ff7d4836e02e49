package auth

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionRevoked     = errors.New("session has been revoked")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingToken       = errors.New("missing authorization token")
)

// statusCoder is implemented by errors that carry an HTTP status, such as domain.APIError
type statusCoder interface {
	StatusCode() int
}

var authMessageMarkers = []string{"refresh", "token", "unauthorized", "invalid"}

// IsAuthError reports whether err means the caller's session is unusable and
// local session state should be dropped. It matches the typed errors of this
// package, errors carrying HTTP status 400, 401 or 403, and messages that
// mention refresh, token, unauthorized or invalid.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	for _, target := range []error{
		ErrInvalidToken, ErrTokenExpired, ErrSessionNotFound,
		ErrSessionRevoked, ErrInvalidCredentials, ErrMissingToken,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		switch sc.StatusCode() {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range authMessageMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
