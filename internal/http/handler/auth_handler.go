package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/straye-as/sds-catalog-api/internal/auth"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/events"
	"github.com/straye-as/sds-catalog-api/internal/service"
	"go.uber.org/zap"
)

// HeartbeatInterval is the time between keepalive comments on an event stream
const HeartbeatInterval = 30 * time.Second

type AuthHandler struct {
	authService *service.AuthService
	middleware  *auth.Middleware
	hub         *events.Hub
	heartbeat   time.Duration
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, middleware *auth.Middleware, hub *events.Hub, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		middleware:  middleware,
		hub:         hub,
		heartbeat:   HeartbeatInterval,
		logger:      logger,
	}
}

// SignUp godoc
// @Summary Create an account
// @Description Registers a viewer account and signs it in. Disabled unless auth.allowSignUp is set.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.SignUpRequest true "Account data"
// @Success 201 {object} domain.SessionDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError "Sign-up disabled"
// @Failure 409 {object} domain.APIError "Email already registered"
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req domain.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	session, err := h.authService.SignUp(r.Context(), &req, clientInfo(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "sign up")
		return
	}

	h.setSessionCookie(w, session)
	respondJSON(w, http.StatusCreated, session)
}

// SignIn godoc
// @Summary Sign in
// @Description Checks the credentials and starts a session. The token is returned and also set as an HttpOnly cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.SignInRequest true "Credentials"
// @Success 200 {object} domain.SessionDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Router /auth/signin [post]
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req domain.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	session, err := h.authService.SignIn(r.Context(), &req, clientInfo(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "sign in")
		return
	}

	h.setSessionCookie(w, session)
	respondJSON(w, http.StatusOK, session)
}

// SignOut godoc
// @Summary Sign out
// @Description Revokes the current session, if any, and clears the session cookie
// @Tags Auth
// @Success 204
// @Security BearerAuth
// @Router /auth/signout [post]
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if userCtx, ok := auth.FromContext(r.Context()); ok {
		if err := h.authService.SignOut(r.Context(), userCtx.SessionID, userCtx.UserID); err != nil {
			h.logger.Warn("failed to revoke session on sign out",
				zap.String("session_id", userCtx.SessionID.String()),
				zap.Error(err),
			)
		}
	}

	h.middleware.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Refresh godoc
// @Summary Refresh the session
// @Description Issues a new session and token and revokes the current one
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.SessionDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	session, err := h.authService.Refresh(r.Context(), userCtx, clientInfo(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "refresh session")
		return
	}

	h.setSessionCookie(w, session)
	respondJSON(w, http.StatusOK, session)
}

// Session godoc
// @Summary Current session
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.SessionDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /auth/session [get]
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	session, err := h.authService.Session(r.Context(), userCtx)
	if err != nil {
		respondServiceError(w, h.logger, err, "get session")
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// UpdateUser godoc
// @Summary Update the current user
// @Description Changes the name and/or password of the signed-in user
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.UpdateUserRequest true "Fields to change"
// @Success 200 {object} domain.UserDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /auth/user [put]
func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	var req domain.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	user, err := h.authService.UpdateUser(r.Context(), userCtx, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update user")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Events godoc
// @Summary Auth state change stream
// @Description Server-sent events for SIGNED_IN, SIGNED_OUT, TOKEN_REFRESHED and USER_UPDATED of the current user
// @Tags Auth
// @Produce text/event-stream
// @Success 200
// @Security BearerAuth
// @Router /auth/events [get]
func (h *AuthHandler) Events(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "Streaming is not supported")
		return
	}

	// Lift the server write timeout for the lifetime of the stream
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	client := h.hub.Subscribe(userCtx.UserID)
	defer h.hub.Unsubscribe(client.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: connected\ndata: {\"client_id\":%q}\n\n", client.ID)
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data())
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, session *domain.SessionDTO) {
	expiresAt, err := time.Parse(time.RFC3339, session.ExpiresAt)
	if err != nil {
		h.logger.Warn("session without parseable expiry, cookie not set", zap.String("expires_at", session.ExpiresAt))
		return
	}
	h.middleware.SetCookie(w, session.AccessToken, expiresAt)
}
