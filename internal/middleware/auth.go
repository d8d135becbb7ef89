// Package middleware provides HTTP middlewares for authentication and
// request logging.
package middleware

import (
	"context"
	"net/http"

	"github.com/avetrov/todo-api/internal/models"
)

// AuthHeader is the request header carrying the session token.
const AuthHeader = "x-auth"

type ctxKey string

const (
	userKey  ctxKey = "user"
	tokenKey ctxKey = "token"
)

// UserResolver resolves a presented token to the user it belongs to.
type UserResolver interface {
	// Resolve verifies the token and confirms it is still in the
	// user's active token list.
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// TokenAuth is a middleware that authenticates requests via the x-auth
// header. On success the resolved user and the raw token are stored in
// the request context. Every failure is answered with a bare 401; the
// specific reason is never surfaced to the client.
func TokenAuth(resolver UserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get(AuthHeader)
			if tokenString == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			user, err := resolver.Resolve(r.Context(), tokenString)
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), user, tokenString)))
		})
	}
}

// NewContext returns a context carrying the authenticated user and the
// raw token it presented.
func NewContext(ctx context.Context, user *models.User, token string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, tokenKey, token)
}

// GetUserFromContext extracts the authenticated user from the request
// context. Returns nil if the request did not pass TokenAuth.
func GetUserFromContext(ctx context.Context) *models.User {
	if user, ok := ctx.Value(userKey).(*models.User); ok {
		return user
	}
	return nil
}

// GetTokenFromContext extracts the raw session token from the request
// context. Returns an empty string if not found.
func GetTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(tokenKey).(string); ok {
		return token
	}
	return ""
}
