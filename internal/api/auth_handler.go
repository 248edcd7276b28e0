package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	users      UserService
	jwtService auth.JWTService
	logger     *slog.Logger
	now        func() time.Time
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(users UserService, jwtService auth.JWTService, logger *slog.Logger) *AuthHandler {
	if users == nil || jwtService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("user service and jwt service are required for AuthHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		users:      users,
		jwtService: jwtService,
		logger:     logger.With(slog.String("component", "auth_handler")),
		now:        time.Now,
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in domain.RegisterInput
	if err := shared.DecodeJSON(r, &in); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("user registered", slog.Int64("user_id", user.ID))
	h.respondWithTokens(w, r, http.StatusCreated, user)
}

// Login handles POST /auth/login. A wrong password and an unknown email
// produce the same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginInput
	if err := shared.DecodeJSON(r, &in); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	user, err := h.users.Authenticate(r.Context(), in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	h.respondWithTokens(w, r, http.StatusOK, user)
}

// RefreshToken handles POST /auth/refresh. A valid refresh token for an
// existing user yields a new token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	user, err := h.users.Get(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = auth.ErrInvalidRefreshToken
		}
		HandleAPIError(w, r, err)
		return
	}
	h.respondWithTokens(w, r, http.StatusOK, user)
}

func (h *AuthHandler) respondWithTokens(w http.ResponseWriter, r *http.Request, status int, user *domain.User) {
	pair, err := auth.IssueTokenPair(r.Context(), h.jwtService, user.ID, h.now())
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	resp := userToResponse(user)
	shared.RespondWithData(w, r, status, AuthResponse{
		User:         &resp,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
