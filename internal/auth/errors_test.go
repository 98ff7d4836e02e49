package auth_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/straye-as/sds-catalog-api/internal/auth"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"expired token", auth.ErrTokenExpired, true},
		{"wrapped revoked session", fmt.Errorf("lookup: %w", auth.ErrSessionRevoked), true},
		{"unknown session", auth.ErrSessionNotFound, true},
		{"bad credentials", auth.ErrInvalidCredentials, true},
		{"status 400", &domain.APIError{Status: http.StatusBadRequest, Title: "x"}, true},
		{"status 401", &domain.APIError{Status: http.StatusUnauthorized, Title: "x"}, true},
		{"status 403", &domain.APIError{Status: http.StatusForbidden, Title: "x"}, true},
		{"status 500", &domain.APIError{Status: http.StatusInternalServerError, Title: "boom"}, false},
		{"refresh message", errors.New("Refresh failed"), true},
		{"token message", errors.New("JWT TOKEN malformed"), true},
		{"unauthorized message", errors.New("request Unauthorized"), true},
		{"invalid message", errors.New("invalid grant"), true},
		{"network error", errors.New("dial tcp: connection refused"), false},
		{"deadline", fmt.Errorf("failed to load session: %w", errors.New("context deadline exceeded")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.IsAuthError(tt.err))
		})
	}
}
