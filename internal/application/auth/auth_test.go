package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/coldroute-go/internal/application/auth"
	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
)

type memoryUserRepo struct {
	users map[string]*auth.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*auth.User)}
}

func (r *memoryUserRepo) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, shared.NewNotFoundError("user", username)
	}
	return user, nil
}

func (r *memoryUserRepo) Save(_ context.Context, user *auth.User) error {
	r.users[user.Username] = user
	return nil
}

func seedUser(t *testing.T, repo *memoryUserRepo, username, password string, disabled bool) {
	t.Helper()
	hashed, err := auth.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), &auth.User{
		ID:             uuid.New(),
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: hashed,
		Disabled:       disabled,
	}))
}

func TestAuthenticate_RoundTrip(t *testing.T) {
	repo := newMemoryUserRepo()
	seedUser(t, repo, "dispatcher", "s3cret", false)
	service := auth.NewService(repo, "test-key", 60)

	token, err := service.Authenticate(context.Background(), "dispatcher", "s3cret")
	require.NoError(t, err)

	subject, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "dispatcher", subject)

	user, err := service.CurrentUser(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "dispatcher", user.Username)
}

func TestAuthenticate_WrongPasswordAndMissingUserLookAlike(t *testing.T) {
	repo := newMemoryUserRepo()
	seedUser(t, repo, "dispatcher", "s3cret", false)
	service := auth.NewService(repo, "test-key", 60)

	_, wrongPassword := service.Authenticate(context.Background(), "dispatcher", "nope")
	_, missingUser := service.Authenticate(context.Background(), "ghost", "nope")

	assert.ErrorIs(t, wrongPassword, auth.ErrInvalidCredentials)
	assert.ErrorIs(t, missingUser, auth.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), missingUser.Error())
}

func TestAuthenticate_DisabledUser(t *testing.T) {
	repo := newMemoryUserRepo()
	seedUser(t, repo, "former", "s3cret", true)
	service := auth.NewService(repo, "test-key", 60)

	_, err := service.Authenticate(context.Background(), "former", "s3cret")

	assert.ErrorIs(t, err, auth.ErrUserDisabled)
}

func TestVerifyToken_RejectsForeignSignature(t *testing.T) {
	repo := newMemoryUserRepo()
	service := auth.NewService(repo, "test-key", 60)
	other := auth.NewService(repo, "different-key", 60)

	token, err := other.IssueToken("dispatcher")
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyToken_RejectsUnsignedAlgorithm(t *testing.T) {
	service := auth.NewService(newMemoryUserRepo(), "test-key", 60)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "dispatcher",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyToken_RejectsExpired(t *testing.T) {
	repo := newMemoryUserRepo()
	service := auth.NewService(repo, "test-key", 60)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "dispatcher",
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	token, err := expired.SignedString([]byte("test-key"))
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.Error(t, err)
}

func TestCurrentUser_DisabledAfterIssue(t *testing.T) {
	repo := newMemoryUserRepo()
	seedUser(t, repo, "dispatcher", "s3cret", false)
	service := auth.NewService(repo, "test-key", 60)

	token, err := service.Authenticate(context.Background(), "dispatcher", "s3cret")
	require.NoError(t, err)

	repo.users["dispatcher"].Disabled = true

	_, err = service.CurrentUser(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrUserDisabled)
}
