package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/sds-catalog-api/internal/auth"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/events"
	"github.com/straye-as/sds-catalog-api/internal/mapper"
	"github.com/straye-as/sds-catalog-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthOptions holds the account and session policy
type AuthOptions struct {
	SessionTTL        time.Duration
	MinPasswordLength int
	AllowSignUp       bool
	DefaultRole       domain.UserRole
	// BcryptCost defaults to bcrypt.DefaultCost
	BcryptCost int
}

// ClientInfo describes where a sign-in came from
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// AuthService manages accounts and sessions and announces auth state changes
type AuthService struct {
	userRepo *repository.UserRepository
	sessions auth.SessionStore
	tokens   *auth.TokenManager
	hub      *events.Hub
	opts     AuthOptions
	logger   *zap.Logger
}

func NewAuthService(
	userRepo *repository.UserRepository,
	sessions auth.SessionStore,
	tokens *auth.TokenManager,
	hub *events.Hub,
	opts AuthOptions,
	logger *zap.Logger,
) *AuthService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.MinPasswordLength <= 0 {
		opts.MinPasswordLength = 6
	}
	if !opts.DefaultRole.IsValid() {
		opts.DefaultRole = domain.RoleViewer
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
		tokens:   tokens,
		hub:      hub,
		opts:     opts,
		logger:   logger,
	}
}

// SignUp registers a viewer account and signs it in
func (s *AuthService) SignUp(ctx context.Context, req *domain.SignUpRequest, client ClientInfo) (*domain.SessionDTO, error) {
	if !s.opts.AllowSignUp {
		return nil, fmt.Errorf("%w: sign-up is disabled", ErrForbidden)
	}

	user, err := s.createUser(ctx, req.Email, req.Password, req.Naam, s.opts.DefaultRole)
	if err != nil {
		return nil, err
	}

	return s.startSession(ctx, user, client)
}

// CreateUser registers an account with an explicit role, regardless of the sign-up setting
func (s *AuthService) CreateUser(ctx context.Context, email, password, naam string, role domain.UserRole) (*domain.UserDTO, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: role must be admin or viewer", ErrInvalidInput)
	}
	user, err := s.createUser(ctx, email, password, naam, role)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// SetRole changes the role of the account with the given e-mail address
func (s *AuthService) SetRole(ctx context.Context, email string, role domain.UserRole) error {
	if !role.IsValid() {
		return fmt.Errorf("%w: role must be admin or viewer", ErrInvalidInput)
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return wrapRepoError(err, "get user")
	}
	if err := s.userRepo.UpdateRole(ctx, user.ID, role); err != nil {
		return wrapRepoError(err, "update role")
	}
	s.publish(events.UserUpdated, user.ID, uuid.Nil)
	return nil
}

// SignIn checks the credentials and starts a new session
func (s *AuthService) SignIn(ctx context.Context, req *domain.SignInRequest, client ClientInfo) (*domain.SessionDTO, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("sign-in with wrong password", zap.String("user_id", user.ID.String()))
		return nil, auth.ErrInvalidCredentials
	}

	return s.startSession(ctx, user, client)
}

// SignOut revokes a session. Unknown or already revoked sessions are not an error.
func (s *AuthService) SignOut(ctx context.Context, sessionID, userID uuid.UUID) error {
	if err := s.sessions.Revoke(ctx, sessionID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	s.logger.Info("user signed out",
		zap.String("user_id", userID.String()),
		zap.String("session_id", sessionID.String()),
	)
	s.publish(events.SignedOut, userID, sessionID)
	return nil
}

// Refresh replaces the caller's session with a new one and revokes the old one
func (s *AuthService) Refresh(ctx context.Context, current *auth.UserContext, client ClientInfo) (*domain.SessionDTO, error) {
	user, err := s.userRepo.GetByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	session, err := s.newSession(ctx, user, client)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.MarkRefreshed(ctx, current.SessionID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to revoke refreshed session",
			zap.Error(err),
			zap.String("session_id", current.SessionID.String()),
		)
	}

	s.publish(events.TokenRefreshed, user.ID, session.SessionID)
	return session, nil
}

// Session describes the caller's current session, without a token
func (s *AuthService) Session(ctx context.Context, current *auth.UserContext) (*domain.SessionDTO, error) {
	user, err := s.userRepo.GetByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &domain.SessionDTO{
		SessionID: current.SessionID,
		ExpiresAt: current.ExpiresAt.UTC().Format(time.RFC3339),
		User:      mapper.ToUserDTO(user),
	}, nil
}

// UpdateUser changes the caller's own name and/or password
func (s *AuthService) UpdateUser(ctx context.Context, current *auth.UserContext, req *domain.UpdateUserRequest) (*domain.UserDTO, error) {
	if req.Naam == nil && req.Password == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	var naam, hash *string
	if req.Naam != nil {
		trimmed := strings.TrimSpace(*req.Naam)
		naam = &trimmed
	}
	if req.Password != nil {
		h, err := s.hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		hash = &h
	}

	if err := s.userRepo.UpdateProfile(ctx, current.UserID, naam, hash); err != nil {
		return nil, wrapRepoError(err, "update user")
	}

	user, err := s.userRepo.GetByID(ctx, current.UserID)
	if err != nil {
		return nil, wrapRepoError(err, "get user")
	}

	s.logger.Info("user updated",
		zap.String("user_id", user.ID.String()),
		zap.Bool("password_changed", hash != nil),
	)
	s.publish(events.UserUpdated, user.ID, current.SessionID)

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

func (s *AuthService) createUser(ctx context.Context, email, password, naam string, role domain.UserRole) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email address is required", ErrInvalidInput)
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: an account with this email already exists", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Naam:         strings.TrimSpace(naam),
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, wrapRepoError(err, "create user")
	}

	s.logger.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	if len(password) < s.opts.MinPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, s.opts.MinPasswordLength)
	}
	if len(password) > 72 {
		return "", fmt.Errorf("%w: password must be at most 72 bytes", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// startSession creates a session after a successful sign-in or sign-up
func (s *AuthService) startSession(ctx context.Context, user *domain.User, client ClientInfo) (*domain.SessionDTO, error) {
	session, err := s.newSession(ctx, user, client)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.userRepo.TouchLastSignIn(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record sign-in time", zap.Error(err))
	} else {
		user.LastSignInAt = &now
		session.User = mapper.ToUserDTO(user)
	}

	s.logger.Info("user signed in",
		zap.String("user_id", user.ID.String()),
		zap.String("session_id", session.SessionID.String()),
	)
	s.publish(events.SignedIn, user.ID, session.SessionID)
	return session, nil
}

func (s *AuthService) newSession(ctx context.Context, user *domain.User, client ClientInfo) (*domain.SessionDTO, error) {
	now := time.Now().UTC()
	session := &auth.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		Email:     user.Email,
		Naam:      user.Naam,
		Role:      user.Role,
		ExpiresAt: now.Add(s.opts.SessionTTL),
		UserAgent: truncate(client.UserAgent, 500),
		IPAddress: truncate(client.IPAddress, 64),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.tokens.Issue(session)
	if err != nil {
		return nil, err
	}

	return &domain.SessionDTO{
		AccessToken: token,
		TokenType:   "Bearer",
		SessionID:   session.ID,
		ExpiresAt:   session.ExpiresAt.Format(time.RFC3339),
		User:        mapper.ToUserDTO(user),
	}, nil
}

func (s *AuthService) publish(eventType events.AuthEventType, userID, sessionID uuid.UUID) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(events.AuthEvent{Type: eventType, UserID: userID, SessionID: sessionID})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
