package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/utafrali/reviews-service/internal/auth"
	apperrors "github.com/utafrali/reviews-service/pkg/errors"
	"github.com/utafrali/reviews-service/pkg/httputil"
	"github.com/utafrali/reviews-service/pkg/middleware"
	"github.com/utafrali/reviews-service/pkg/validator"
)

// AuthHandler issues and inspects access tokens. Credential checking is
// delegated to the verifier function so the transport stays decoupled
// from wherever user records live.
type AuthHandler struct {
	tokens   *auth.TokenManager
	verifier CredentialVerifier
	logger   *slog.Logger
}

// CredentialVerifier checks a login attempt and returns the user ID and
// role on success.
type CredentialVerifier func(username, password string) (userID, role string, ok bool)

// NewAuthHandler creates an auth HTTP handler.
func NewAuthHandler(tokens *auth.TokenManager, verifier CredentialVerifier, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		tokens:   tokens,
		verifier: verifier,
		logger:   logger,
	}
}

// LoginRequest is the JSON request body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	userID, role, ok := h.verifier(req.Username, req.Password)
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("invalid credentials"), h.logger)
		return
	}

	token, err := h.tokens.Issue(userID, role)
	if err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]string{
		"token": token,
		"role":  role,
	})
}

// Verify handles GET /api/auth/verify. It runs behind RequireAuth, so
// reaching it means the token already checked out.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, map[string]any{
		"userId":        middleware.SubmitterFromContext(r.Context()),
		"role":          middleware.RoleFromContext(r.Context()),
		"authenticated": middleware.IsAuthenticated(r.Context()),
	})
}
