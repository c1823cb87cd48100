// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/archiveplatform/archive/internal/auth"
	"github.com/archiveplatform/archive/internal/auth/authtest"
	"github.com/archiveplatform/archive/pkg/errutil"
)

type scenario struct {
	svc      *auth.Service
	accounts *authtest.Accounts
	sessions *authtest.Sessions
	clock    *fakeClock
}

func newScenario(t *testing.T) *scenario {
	t.Helper()
	s := &scenario{
		accounts: authtest.NewAccounts(),
		sessions: authtest.NewSessions(),
		clock:    newFakeClock(),
	}
	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	issuer, err := auth.NewSessionIssuer(s.sessions, auth.DefaultSessionLifetime, s.clock.Now)
	require.NoError(t, err)
	s.svc, err = auth.NewService(s.accounts, hasher, issuer, auth.WithClock(s.clock.Now))
	require.NoError(t, err)
	return s
}

func (s *scenario) login(password string) (*auth.Session, string, error) {
	return s.svc.Login(context.Background(), auth.LoginRequest{Username: "alice", Password: password})
}

func TestLoginLockoutLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newScenario(t)

	id, err := s.svc.Register(ctx, "alice", "alice@x.com", "Passw0rd1")
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		_, _, err := s.login("wrong-Passw0rd")
		errutil.AssertErrorCode(t, err, auth.CodeInvalidCredentials)
	}

	_, _, err = s.login("wrong-Passw0rd")
	errutil.AssertErrorCode(t, err, auth.CodeAccountLocked)

	// Correct password is refused while locked.
	_, _, err = s.login("Passw0rd1")
	errutil.AssertErrorCode(t, err, auth.CodeAccountLocked)

	s.clock.Advance(31 * time.Minute)
	session, token, err := s.login("Passw0rd1")
	require.NoError(t, err)
	assert.Equal(t, id, session.AccountID)

	account, err := s.svc.Account(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, account.FailedAttempts)
	assert.Nil(t, account.LockedUntil)
	require.NotNil(t, account.LastLogin)
	assert.Equal(t, s.clock.Now(), *account.LastLogin)

	s.clock.Advance(time.Hour + 59*time.Minute)
	_, err = s.svc.ValidateSession(ctx, token)
	require.NoError(t, err)

	s.clock.Advance(2 * time.Minute)
	_, err = s.svc.ValidateSession(ctx, token)
	errutil.AssertErrorCode(t, err, auth.CodeSessionExpired)
}

func TestLoginAfterLockExpiryRelocksOnFailure(t *testing.T) {
	ctx := context.Background()
	s := newScenario(t)
	_, err := s.svc.Register(ctx, "alice", "alice@x.com", "Passw0rd1")
	require.NoError(t, err)

	for i := 0; i < auth.DefaultLockoutThreshold; i++ {
		_, _, _ = s.login("nope-Passw0rd") //nolint:dogsled // only the final state matters
	}

	s.clock.Advance(auth.DefaultLockoutDuration)
	_, _, err = s.login("still-wrong1A")
	errutil.AssertErrorCode(t, err, auth.CodeAccountLocked)
}

func TestRegisterDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newScenario(t)
	_, err := s.svc.Register(ctx, "alice", "alice@x.com", "Passw0rd1")
	require.NoError(t, err)

	_, err = s.svc.Register(ctx, "ALICE", "other@x.com", "Passw0rd1")
	errutil.AssertErrorCode(t, err, auth.CodeDuplicateAccount)

	_, err = s.svc.Register(ctx, "bob", "Alice@X.com", "Passw0rd1")
	errutil.AssertErrorCode(t, err, auth.CodeDuplicateAccount)
}

func TestLoginIsCaseInsensitiveOnUsername(t *testing.T) {
	ctx := context.Background()
	s := newScenario(t)
	_, err := s.svc.Register(ctx, "Alice", "alice@x.com", "Passw0rd1")
	require.NoError(t, err)

	_, _, err = s.login("Passw0rd1")
	require.NoError(t, err)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	ctx := context.Background()
	s := newScenario(t)
	_, err := s.svc.Register(ctx, "alice", "alice@x.com", "Passw0rd1")
	require.NoError(t, err)

	_, token, err := s.login("Passw0rd1")
	require.NoError(t, err)
	require.Equal(t, 1, s.sessions.Count())

	require.NoError(t, s.svc.Logout(ctx, token))
	require.NoError(t, s.svc.Logout(ctx, token))

	_, err = s.svc.ValidateSession(ctx, token)
	errutil.AssertErrorCode(t, err, auth.CodeSessionInvalid)
}

func TestReloginRevokesPriorSession(t *testing.T) {
	ctx := context.Background()
	s := newScenario(t)
	_, err := s.svc.Register(ctx, "alice", "alice@x.com", "Passw0rd1")
	require.NoError(t, err)

	_, first, err := s.login("Passw0rd1")
	require.NoError(t, err)

	_, second, err := s.svc.Login(ctx, auth.LoginRequest{Username: "alice", Password: "Passw0rd1", PriorToken: first})
	require.NoError(t, err)

	_, err = s.svc.ValidateSession(ctx, first)
	errutil.AssertErrorCode(t, err, auth.CodeSessionInvalid)
	_, err = s.svc.ValidateSession(ctx, second)
	assert.NoError(t, err)
}
