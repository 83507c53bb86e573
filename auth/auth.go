/*
Package auth is the identity and session boundary.

PURPOSE:
  Supplies an authenticated user identity to the tracking engine. Password
  hashing and token issuance are deliberately thin: bcrypt for credentials,
  signed JWT access tokens for sessions. Everything downstream only ever
  sees a resolved user id.

SEE ALSO:
  - api/server.go: Middleware that resolves tokens on secure routes
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/verdant/eco-engine/ecotrack"
)

var (
	// ErrInvalidCredentials is returned for a bad email/password pair. The
	// two cases are not distinguished to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when registering an already-used email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidToken is returned for expired, malformed, or forged tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// User is an account record. PasswordHash never leaves this package.
type User struct {
	ID           ecotrack.UserID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore persists accounts.
type UserStore interface {
	SaveUser(ctx context.Context, u User) error
	// GetUserByEmail returns nil, nil when no account matches.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUser(ctx context.Context, id ecotrack.UserID) (*User, error)
}

// Service handles registration, login, and token verification.
type Service struct {
	Users    UserStore
	Secret   []byte
	TokenTTL time.Duration
}

func NewService(users UserStore, secret []byte) *Service {
	return &Service{Users: users, Secret: secret, TokenTTL: 24 * time.Hour}
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, name, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existing, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		ID:           ecotrack.UserID(ecotrack.NewID()),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Users.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return &user, nil
}

// Login verifies credentials and issues a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.Users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// IssueToken signs a token carrying the user id as subject.
func (s *Service) IssueToken(userID ecotrack.UserID) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   string(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken resolves a token back to the user id it was issued for.
func (s *Service) VerifyToken(tokenString string) (ecotrack.UserID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.Secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return ecotrack.UserID(claims.Subject), nil
}
