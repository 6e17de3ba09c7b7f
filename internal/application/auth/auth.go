// Package auth issues and verifies bearer tokens for the HTTP surface.
// Passwords are stored as bcrypt hashes; tokens are HS256 JWTs with the
// username in `sub` and the configured expiry in `exp`.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is the authenticated principal
type User struct {
	ID             uuid.UUID
	Username       string
	Email          string
	HashedPassword string
	FullName       string
	Disabled       bool
	IsSuperuser    bool
	CreatedAt      time.Time
}

// UserRepository defines user persistence operations
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	Save(ctx context.Context, user *User) error
}

// Credential errors are deliberately indistinct so login probing cannot tell
// a missing user from a wrong password.
var (
	ErrInvalidCredentials = fmt.Errorf("incorrect username or password")
	ErrUserDisabled       = fmt.Errorf("user account is disabled")
)

// Service verifies credentials and issues tokens
type Service struct {
	users         UserRepository
	secretKey     []byte
	tokenLifetime time.Duration
}

// NewService creates the auth service. expiryMinutes defaults to 24 hours
// when zero.
func NewService(users UserRepository, secretKey string, expiryMinutes int) *Service {
	if expiryMinutes <= 0 {
		expiryMinutes = 24 * 60
	}
	return &Service{
		users:         users,
		secretKey:     []byte(secretKey),
		tokenLifetime: time.Duration(expiryMinutes) * time.Minute,
	}
}

// HashPassword produces a bcrypt hash for storage
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Authenticate verifies a username/password pair and returns a signed token
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	if user.Disabled {
		return "", ErrUserDisabled
	}
	return s.IssueToken(user.Username)
}

// IssueToken signs an HS256 JWT for the username
func (s *Service) IssueToken(username string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(s.tokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses a bearer token and returns the subject username
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}

// CurrentUser resolves the token's subject to an enabled user
func (s *Service) CurrentUser(ctx context.Context, tokenString string) (*User, error) {
	username, err := s.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("token subject not found")
	}
	if user.Disabled {
		return nil, ErrUserDisabled
	}
	return user, nil
}
