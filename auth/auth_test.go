package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdant/eco-engine/auth"
	"github.com/verdant/eco-engine/ecotrack/store"
)

func newTestService() *auth.Service {
	return auth.NewService(store.NewMemory(), []byte("test-secret"))
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	// GIVEN: A registered account
	// WHEN: Logging in with the right password
	// THEN: A token is issued that resolves back to the same user

	svc := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "eco@example.com", "Eco Tester", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "hunter22", user.PasswordHash, "password must be hashed")

	token, loggedIn, err := svc.Login(ctx, "eco@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	resolved, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved)
}

func TestAuth_Login_WrongPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "eco@example.com", "Eco Tester", "hunter22")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "eco@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuth_Register_EmailTaken(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "eco@example.com", "First", "hunter22")
	require.NoError(t, err)

	// Same email modulo case and whitespace.
	_, err = svc.Register(ctx, "  Eco@Example.COM ", "Second", "other")
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestAuth_Register_RequiresCredentials(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "No Email", "hunter22")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Register(ctx, "eco@example.com", "No Password", "")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuth_VerifyToken_RejectsForgeries(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "eco@example.com", "Eco Tester", "hunter22")
	require.NoError(t, err)
	token, err := svc.IssueToken(user.ID)
	require.NoError(t, err)

	// Garbage is rejected.
	_, err = svc.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// A token signed with a different secret is rejected.
	other := auth.NewService(store.NewMemory(), []byte("other-secret"))
	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestAuth_VerifyToken_RejectsExpired(t *testing.T) {
	svc := newTestService()
	svc.TokenTTL = -time.Minute

	token, err := svc.IssueToken("user-1")
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
