package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wholesale-backend/pkg/auth/session"
	"github.com/angelmondragon/wholesale-backend/pkg/config"
	"github.com/angelmondragon/wholesale-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

var testPasswordCfg = config.PasswordConfig{
	ArgonMemoryKB:    64,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func newTestService(t *testing.T, withDB bool) (Service, *session.MemoryRegistry) {
	t.Helper()
	registry := session.NewMemoryRegistry()
	params := ServiceParams{
		Admin:    config.AdminConfig{User: "admin", Password: "Password@123"},
		JWT:      config.JWTConfig{Secret: "test-secret", Issuer: "wholesale-admin", ExpirationMinutes: 60},
		Password: testPasswordCfg,
		Sessions: registry,
	}
	if withDB {
		params.Credentials = NewCredentialRepository(dbtest.Open(t).DB())
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return svc, registry
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, code), "expected %s, got %v", code, err)
}

func TestNewServiceValidatesParams(t *testing.T) {
	t.Parallel()

	_, err := NewService(ServiceParams{})
	assert.Error(t, err)

	_, err = NewService(ServiceParams{Sessions: session.NewMemoryRegistry(), Admin: config.AdminConfig{User: "admin"}})
	assert.Error(t, err)
}

func TestLoginWithEnvironmentPassword(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	sess, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: "Password@123"})
	require.NoError(t, err)
	assert.Equal(t, "admin", sess.Username)
	assert.NotEmpty(t, sess.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, time.Minute)

	status := svc.Check(ctx, sess.Token)
	assert.True(t, status.Authenticated)
	assert.Equal(t, "admin", status.Username)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	_, err := svc.Login(ctx, LoginRequest{Username: "admin"})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Login(ctx, LoginRequest{Username: "admin", Password: "wrong"})
	expectCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.Login(ctx, LoginRequest{Username: "root", Password: "Password@123"})
	expectCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	sess, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: "Password@123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sess.Token))

	_, err = svc.Authenticate(ctx, sess.Token)
	expectCode(t, err, pkgerrors.CodeUnauthorized)
	assert.False(t, svc.Check(ctx, sess.Token).Authenticated)
}

func TestLogoutIgnoresGarbageToken(t *testing.T) {
	svc, _ := newTestService(t, false)

	assert.NoError(t, svc.Logout(context.Background(), ""))
	assert.NoError(t, svc.Logout(context.Background(), "not-a-jwt"))
}

func TestAuthenticateRejectsForeignToken(t *testing.T) {
	svc, _ := newTestService(t, false)
	other, _ := newTestService(t, false)
	ctx := context.Background()

	sess, err := other.Login(ctx, LoginRequest{Username: "admin", Password: "Password@123"})
	require.NoError(t, err)

	// Same secret but never registered with this service's registry.
	_, err = svc.Authenticate(ctx, sess.Token)
	expectCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.Authenticate(ctx, "")
	expectCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestChangePasswordValidation(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	cases := []struct {
		name string
		req  ChangePasswordRequest
	}{
		{name: "missing fields", req: ChangePasswordRequest{OldPassword: "Password@123"}},
		{name: "mismatch", req: ChangePasswordRequest{OldPassword: "Password@123", NewPassword: "abcdef", ConfirmPassword: "abcdeg"}},
		{name: "too short", req: ChangePasswordRequest{OldPassword: "Password@123", NewPassword: "abc", ConfirmPassword: "abc"}},
		{name: "wrong current", req: ChangePasswordRequest{OldPassword: "nope", NewPassword: "abcdef", ConfirmPassword: "abcdef"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expectCode(t, svc.ChangePassword(ctx, "admin", "", tc.req), pkgerrors.CodeValidation)
		})
	}
}

func TestChangePasswordRequiresDatabase(t *testing.T) {
	svc, _ := newTestService(t, false)

	err := svc.ChangePassword(context.Background(), "admin", "", ChangePasswordRequest{
		OldPassword:     "Password@123",
		NewPassword:     "n3wpass",
		ConfirmPassword: "n3wpass",
	})
	expectCode(t, err, pkgerrors.CodeDependency)
}

func TestChangePasswordOverridesEnvironment(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	require.NoError(t, svc.ChangePassword(ctx, "admin", "", ChangePasswordRequest{
		OldPassword:     "Password@123",
		NewPassword:     "n3wpass",
		ConfirmPassword: "n3wpass",
	}))

	_, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: "Password@123"})
	expectCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.Login(ctx, LoginRequest{Username: "admin", Password: "n3wpass"})
	require.NoError(t, err)

	// A second change verifies against the stored hash.
	require.NoError(t, svc.ChangePassword(ctx, "admin", "", ChangePasswordRequest{
		OldPassword:     "n3wpass",
		NewPassword:     "an0ther",
		ConfirmPassword: "an0ther",
	}))
	_, err = svc.Login(ctx, LoginRequest{Username: "admin", Password: "an0ther"})
	require.NoError(t, err)
}

func TestLoginRehashesStoredPasswordWithNewCost(t *testing.T) {
	ctx := context.Background()
	creds := NewCredentialRepository(dbtest.Open(t).DB())
	build := func(cfg config.PasswordConfig) Service {
		svc, err := NewService(ServiceParams{
			Admin:       config.AdminConfig{User: "admin", Password: "Password@123"},
			JWT:         config.JWTConfig{Secret: "test-secret", Issuer: "wholesale-admin", ExpirationMinutes: 60},
			Password:    cfg,
			Sessions:    session.NewMemoryRegistry(),
			Credentials: creds,
		})
		require.NoError(t, err)
		return svc
	}

	require.NoError(t, build(testPasswordCfg).ChangePassword(ctx, "admin", "", ChangePasswordRequest{
		OldPassword:     "Password@123",
		NewPassword:     "n3wpass",
		ConfirmPassword: "n3wpass",
	}))
	before, err := creds.Find(ctx, "admin")
	require.NoError(t, err)
	assert.Contains(t, before.PasswordHash, ",t=1,")

	stronger := testPasswordCfg
	stronger.ArgonTime = 2
	_, err = build(stronger).Login(ctx, LoginRequest{Username: "admin", Password: "n3wpass"})
	require.NoError(t, err)

	after, err := creds.Find(ctx, "admin")
	require.NoError(t, err)
	assert.Contains(t, after.PasswordHash, ",t=2,")
}

func TestChangePasswordEndsOtherSessions(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	desk, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: "Password@123"})
	require.NoError(t, err)
	phone, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: "Password@123"})
	require.NoError(t, err)

	claims, err := svc.Authenticate(ctx, desk.Token)
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, "admin", claims.ID, ChangePasswordRequest{
		OldPassword:     "Password@123",
		NewPassword:     "n3wpass",
		ConfirmPassword: "n3wpass",
	}))

	assert.True(t, svc.Check(ctx, desk.Token).Authenticated)
	assert.False(t, svc.Check(ctx, phone.Token).Authenticated)
}
