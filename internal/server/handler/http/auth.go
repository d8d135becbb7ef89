// Package http provides the HTTP handlers and routing for the todo API.
package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/avetrov/todo-api/internal/apperror"
	"github.com/avetrov/todo-api/internal/middleware"
	"github.com/avetrov/todo-api/internal/models"
)

// AuthService defines the account operations required by the HTTP
// handlers.
type AuthService interface {
	// Register creates a user from credentials and returns it with a
	// fresh session token.
	Register(ctx context.Context, email, password string) (*models.User, string, error)
	// Login authenticates credentials and returns the user with a
	// fresh session token.
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	// Logout revokes the given token of the user.
	Logout(ctx context.Context, user *models.User, token string) error
}

// AuthHandler handles registration, login, logout and profile requests.
type AuthHandler struct {
	// AuthService performs the underlying account operations.
	AuthService AuthService
}

// CredentialsRequest represents the JSON payload for registration and
// login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /users. On success it responds with the
// public user view and the issued token in the x-auth header.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.NewValidationError("invalid request body", err))
		return
	}

	user, token, err := h.AuthService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set(middleware.AuthHeader, token)
	writeJSON(w, http.StatusOK, user.Public())
}

// Login handles POST /users/login. On success it responds with the
// public user view and the issued token in the x-auth header.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.NewValidationError("invalid request body", err))
		return
	}

	user, token, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set(middleware.AuthHeader, token)
	writeJSON(w, http.StatusOK, user.Public())
}

// Me handles GET /users/me, returning the public view of the
// authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// Logout handles DELETE /users/me/token, revoking the token the
// request authenticated with. Responds 200 with an empty body.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := h.AuthService.Logout(r.Context(), user, middleware.GetTokenFromContext(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error onto the API's contractual status codes.
// Unauthorized responses deliberately carry no body.
func writeError(w http.ResponseWriter, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("internal server error", err)
	}

	status := appErr.StatusCode()
	if status == http.StatusUnauthorized {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(appErr.ToResponse())
}
