package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/repository"
	"gorm.io/gorm"
)

// Session is the stored state behind an access token
type Session struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Email       string          `json:"email"`
	Naam        string          `json:"naam"`
	Role        domain.UserRole `json:"role"`
	ExpiresAt   time.Time       `json:"expires_at"`
	RevokedAt   *time.Time      `json:"revoked_at,omitempty"`
	RefreshedAt *time.Time      `json:"refreshed_at,omitempty"`
	UserAgent   string          `json:"user_agent,omitempty"`
	IPAddress   string          `json:"ip_address,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Check returns nil for a usable session and the matching auth error otherwise
func (s *Session) Check(now time.Time) error {
	if s.RevokedAt != nil {
		return ErrSessionRevoked
	}
	if !now.Before(s.ExpiresAt) {
		return ErrTokenExpired
	}
	return nil
}

// SessionStore keeps sessions between requests
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	// Get returns ErrSessionNotFound for unknown ids
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error
	// MarkRefreshed revokes a session that was replaced by a new one
	MarkRefreshed(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ============================================================================
// Database store
// ============================================================================

// DBSessionStore keeps sessions in the sessions table
type DBSessionStore struct {
	repo *repository.SessionRepository
}

// NewDBSessionStore creates a session store on top of the sessions table
func NewDBSessionStore(repo *repository.SessionRepository) *DBSessionStore {
	return &DBSessionStore{repo: repo}
}

func (s *DBSessionStore) Create(ctx context.Context, session *Session) error {
	if err := s.repo.Create(ctx, &domain.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
		UserAgent: session.UserAgent,
		IPAddress: session.IPAddress,
		CreatedAt: session.CreatedAt,
	}); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *DBSessionStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if row.User == nil {
		return nil, ErrSessionNotFound
	}

	return &Session{
		ID:          row.ID,
		UserID:      row.UserID,
		Email:       row.User.Email,
		Naam:        row.User.Naam,
		Role:        row.User.Role,
		ExpiresAt:   row.ExpiresAt,
		RevokedAt:   row.RevokedAt,
		RefreshedAt: row.RefreshedAt,
		UserAgent:   row.UserAgent,
		IPAddress:   row.IPAddress,
		CreatedAt:   row.CreatedAt,
	}, nil
}

func (s *DBSessionStore) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.repo.Revoke(ctx, id, at)
}

func (s *DBSessionStore) MarkRefreshed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.repo.MarkRefreshed(ctx, id, at)
}

// ============================================================================
// Redis store
// ============================================================================

// RedisSessionStore keeps sessions as JSON under session:<id>. Keys expire
// with the session, so no cleanup job is needed.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a session store on top of a redis client
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// SessionKey is the redis key of a session
func SessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}

func (s *RedisSessionStore) Create(ctx context.Context, session *Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, SessionKey(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	data, err := s.client.Get(ctx, SessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.update(ctx, id, func(session *Session) {
		if session.RevokedAt == nil {
			session.RevokedAt = &at
		}
	})
}

func (s *RedisSessionStore) MarkRefreshed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.update(ctx, id, func(session *Session) {
		if session.RevokedAt == nil {
			session.RevokedAt = &at
			session.RefreshedAt = &at
		}
	})
}

// update rewrites a session in place, keeping its expiry
func (s *RedisSessionStore) update(ctx context.Context, id uuid.UUID, apply func(*Session)) error {
	session, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}

	apply(session)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, SessionKey(id), data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}
