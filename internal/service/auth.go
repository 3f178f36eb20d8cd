// Package service holds the domain logic behind the HTTP handlers: account
// registration and login, token validation, and the owner-scoped movie
// operations. Handlers validate and bind input, services decide, and the
// repositories persist.
package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-collection/internal/repository"
	"github.com/iliyamo/movie-collection/internal/utils"
)

// ErrInvalidCredentials is returned for both an unknown email and a wrong
// password. The two causes are deliberately indistinguishable so login
// responses never reveal which emails are registered.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserStore is the persistence surface the auth service needs. It is
// satisfied by *repository.UserRepo.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	GetByID(ctx context.Context, id uint64) (repository.User, error)
}

// AuthUser is the outward-facing view of an account: id and email only.
// The password hash never serializes past this layer.
type AuthUser struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}

// Identity is the caller identity decoded from a valid bearer token.
type Identity struct {
	UserID uint64
	Email  string
}

// AuthService registers users, checks credentials and issues/validates
// stateless bearer tokens.
type AuthService struct {
	users      UserStore
	secret     string
	ttlMin     int
	bcryptCost int
}

func NewAuthService(users UserStore, secret string, ttlMin, bcryptCost int) *AuthService {
	return &AuthService{users: users, secret: secret, ttlMin: ttlMin, bcryptCost: bcryptCost}
}

// Register creates an account and returns a signed token for it.
// repository.ErrEmailExists propagates when the email is already taken.
func (s *AuthService) Register(ctx context.Context, email, password string) (utils.AccessToken, AuthUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return utils.AccessToken{}, AuthUser{}, err
	}
	id, err := s.users.Create(ctx, email, hash)
	if err != nil {
		return utils.AccessToken{}, AuthUser{}, err
	}
	tok, err := utils.NewAccessToken(s.secret, id, email, s.ttlMin)
	if err != nil {
		return utils.AccessToken{}, AuthUser{}, err
	}
	return tok, AuthUser{ID: id, Email: email}, nil
}

// Login verifies credentials and returns a fresh token. An unknown email and
// a bad password both yield ErrInvalidCredentials; store failures other than
// a missing row propagate untouched.
func (s *AuthService) Login(ctx context.Context, email, password string) (utils.AccessToken, AuthUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.AccessToken{}, AuthUser{}, ErrInvalidCredentials
		}
		return utils.AccessToken{}, AuthUser{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return utils.AccessToken{}, AuthUser{}, ErrInvalidCredentials
	}
	tok, err := utils.NewAccessToken(s.secret, u.ID, u.Email, s.ttlMin)
	if err != nil {
		return utils.AccessToken{}, AuthUser{}, err
	}
	return tok, AuthUser{ID: u.ID, Email: u.Email}, nil
}

// ValidateToken decodes a bearer token into a caller identity. The boolean
// is false for malformed, expired or wrongly-signed tokens and for subjects
// that no longer exist; all of these are normal outcomes that the middleware
// turns into a 401, never an error.
func (s *AuthService) ValidateToken(ctx context.Context, raw string) (Identity, bool) {
	claims, ok := utils.ParseAccessToken(s.secret, raw)
	if !ok {
		return Identity{}, false
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return Identity{}, false
	}
	return Identity{UserID: u.ID, Email: u.Email}, true
}
