// Package service implements the business rules for user accounts and
// todos, delegating persistence to repository interfaces.
package service

import (
	"context"
	"net/mail"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/avetrov/todo-api/internal/apperror"
	"github.com/avetrov/todo-api/internal/models"
)

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 6

// UserRepository defines the persistence operations required by the
// authentication service.
type UserRepository interface {
	// CreateUser inserts a new user and returns it with the stored id.
	// A duplicate email is reported as a conflict error.
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	// FindUserByEmail fetches the user with the given email.
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	// FindUserByToken fetches the user with the given id whose token
	// list still contains the exact token string.
	FindUserByToken(ctx context.Context, id primitive.ObjectID, token string) (*models.User, error)
	// AddToken appends a token entry to the user's token list.
	AddToken(ctx context.Context, id primitive.ObjectID, entry models.TokenEntry) error
	// RemoveToken removes the matching token entry; absent tokens are a
	// no-op.
	RemoveToken(ctx context.Context, id primitive.ObjectID, token string) error
}

// TokenService signs and verifies session tokens.
type TokenService interface {
	// Issue produces a signed token asserting the given user id.
	Issue(userID string) (string, error)
	// Verify checks a token and returns the user id it asserts.
	Verify(token string) (string, error)
}

// AuthService implements registration, login, logout and token
// resolution by delegating to a UserRepository and a TokenService.
type AuthService struct {
	repo   UserRepository
	tokens TokenService
}

// NewAuthService constructs an AuthService using the provided
// repository and token service.
func NewAuthService(repo UserRepository, tokens TokenService) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

// validEmail reports whether email is a syntactically valid, bare
// address with a dotted host.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return strings.Contains(email[at+1:], ".")
}

// Register validates the credentials, creates the user with a bcrypt
// password hash and an initial session token, and returns both.
// The password is hashed exactly once, here; no later write path
// touches the password field.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return nil, "", apperror.NewValidationError("email is not valid", nil)
	}
	if len(password) < minPasswordLength {
		return nil, "", apperror.NewValidationError("password must be at least 6 characters", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperror.NewInternalError("failed to hash password", err)
	}

	// The id is generated client-side so the first token can be signed
	// and stored in the same insert.
	user := &models.User{
		ID:       primitive.NewObjectID(),
		Email:    email,
		Password: string(hash),
		Tokens:   []models.TokenEntry{},
	}

	tokenString, err := s.tokens.Issue(user.ID.Hex())
	if err != nil {
		return nil, "", apperror.NewInternalError("failed to issue token", err)
	}
	user.Tokens = append(user.Tokens, models.TokenEntry{Access: models.AccessAuth, Token: tokenString})

	created, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return created, tokenString, nil
}

// Login authenticates the credentials and, on success, issues a new
// session token, appends it to the user's token list and returns it.
// An unknown email and a wrong password produce the same error so the
// caller cannot enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, "", apperror.NewValidationError("invalid credentials", nil)
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", apperror.NewValidationError("invalid credentials", nil)
	}

	tokenString, err := s.tokens.Issue(user.ID.Hex())
	if err != nil {
		return nil, "", apperror.NewInternalError("failed to issue token", err)
	}
	if err := s.repo.AddToken(ctx, user.ID, models.TokenEntry{Access: models.AccessAuth, Token: tokenString}); err != nil {
		return nil, "", err
	}
	return user, tokenString, nil
}

// Logout removes the given token from the user's token list, revoking
// it. Logging out an already removed token is a no-op.
func (s *AuthService) Logout(ctx context.Context, user *models.User, tokenString string) error {
	return s.repo.RemoveToken(ctx, user.ID, tokenString)
}

// Resolve verifies a presented token and returns the user it belongs
// to. Beyond the signature check, the user's stored token list must
// still contain the exact token string, so a logged-out token no
// longer resolves. Any failure is reported as unauthorized.
func (s *AuthService) Resolve(ctx context.Context, tokenString string) (*models.User, error) {
	userID, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperror.NewUnauthorizedError("invalid token", err)
	}

	user, err := s.repo.FindUserByToken(ctx, id, tokenString)
	if err != nil {
		return nil, apperror.NewUnauthorizedError("token is not active", err)
	}
	return user, nil
}
