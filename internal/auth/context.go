package auth

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/sds-catalog-api/internal/domain"
)

// UserContext is the signed-in user of a request, taken from the active session
type UserContext struct {
	UserID      uuid.UUID
	SessionID   uuid.UUID
	DisplayName string
	Email       string
	Role        domain.UserRole
	ExpiresAt   time.Time
}

// NewUserContext builds the request context of an active session
func NewUserContext(s *Session) *UserContext {
	return &UserContext{
		UserID:      s.UserID,
		SessionID:   s.ID,
		DisplayName: s.Naam,
		Email:       s.Email,
		Role:        s.Role,
		ExpiresAt:   s.ExpiresAt,
	}
}

type userContextKey struct{}

func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey{}).(*UserContext)
	return user, ok && user != nil
}

// MustFromContext is for handlers mounted behind Authenticate
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("auth: no user in request context; route is missing the Authenticate middleware")
	}
	return user
}

// ActorID returns the signed-in user for "started by" columns, or nil for
// anonymous and CLI callers
func ActorID(ctx context.Context) *uuid.UUID {
	user, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return user.UserIDPtr()
}

func (u *UserContext) HasAnyRole(roles ...domain.UserRole) bool {
	return slices.Contains(roles, u.Role)
}

// IsAdmin reports whether the user may change the catalogue
func (u *UserContext) IsAdmin() bool {
	return u.Role == domain.RoleAdmin
}

func (u *UserContext) UserIDPtr() *uuid.UUID {
	if u == nil || u.UserID == uuid.Nil {
		return nil
	}
	id := u.UserID
	return &id
}
