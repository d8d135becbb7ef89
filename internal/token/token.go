// Package token issues and verifies signed session tokens. A token
// binds a user id to the "auth" purpose tag and is signed with a
// process-wide secret. Tokens carry no expiry: a token stays
// cryptographically valid until the secret rotates, and is revoked by
// removing it from the user's stored token list.
package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avetrov/todo-api/internal/apperror"
	"github.com/avetrov/todo-api/internal/models"
)

// Claims is the token payload: the user id, the purpose tag, and the
// registered claims (of which only the jti id is set).
type Claims struct {
	UserID string `json:"user_id"`
	Access string `json:"access"`
	jwt.RegisteredClaims
}

// Service signs and verifies session tokens with a shared secret.
type Service struct {
	secret []byte
}

// New creates a token Service using the given signing secret.
func New(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

// Issue produces a signed token asserting the given user id for the
// "auth" purpose. The jti claim makes every issued token unique, so
// two logins in the same instant still yield distinct list entries.
func (s *Service) Issue(userID string) (string, error) {
	claims := Claims{
		UserID: userID,
		Access: models.AccessAuth,
		RegisteredClaims: jwt.RegisteredClaims{
			ID: uuid.NewString(),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and purpose tag and returns the
// user id the token was issued for. Any failure is reported as an
// unauthorized error without detail.
func (s *Service) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", apperror.NewUnauthorizedError("invalid token", err)
	}
	if !t.Valid || claims.Access != models.AccessAuth || claims.UserID == "" {
		return "", apperror.NewUnauthorizedError("invalid token", nil)
	}
	return claims.UserID, nil
}
