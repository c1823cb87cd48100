// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archiveplatform/archive/internal/auth"
	"github.com/archiveplatform/archive/pkg/errutil"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid", "alice", false},
		{"valid min length", "abc", false},
		{"valid max length", strings.Repeat("a", 50), false},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 51), true},
		{"empty", "", true},
		{"multibyte counted as characters", "élè", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateUsername(tt.username)
			if tt.wantErr {
				errutil.AssertErrorCode(t, err, auth.CodeInvalidUsername)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "alice@x.com", false},
		{"valid with plus", "alice+tag@example.org", false},
		{"missing at", "alice.example.com", true},
		{"missing domain", "alice@", true},
		{"short tld", "alice@x.c", true},
		{"empty", "", true},
		{"spaces", "al ice@x.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateEmail(tt.email)
			if tt.wantErr {
				errutil.AssertErrorCode(t, err, auth.CodeInvalidEmail)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		contains string
	}{
		{"too short", "Pa1", "at least 8"},
		{"no uppercase", "passw0rd1", "uppercase"},
		{"no lowercase", "PASSW0RD1", "lowercase"},
		{"no digit", "Password", "digit"},
		{"too long", "Passw0rd" + strings.Repeat("x", 65), "at most 72 bytes"},
		{"multibyte over byte limit", "Passw0rd" + strings.Repeat("é", 33), "at most 72 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidatePassword(tt.password)
			errutil.AssertErrorCode(t, err, auth.CodeWeakPassword)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}

	t.Run("strong password passes", func(t *testing.T) {
		assert.NoError(t, auth.ValidatePassword("Passw0rd1"))
	})

	t.Run("password at byte limit passes", func(t *testing.T) {
		assert.NoError(t, auth.ValidatePassword("Passw0rd"+strings.Repeat("x", 64)))
	})
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "alice", auth.NormalizeUsername("  alice \t"))
	assert.Equal(t, "alice@x.com", auth.NormalizeEmail(" Alice@X.com "))
}

func TestNewAccount(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("creates account with fresh id", func(t *testing.T) {
		account, err := auth.NewAccount("alice", "alice@x.com", "hash", now)
		require.NoError(t, err)
		assert.NotEqual(t, ulid.ULID{}, account.ID)
		assert.Equal(t, "alice", account.Username)
		assert.Equal(t, "alice@x.com", account.Email)
		assert.Zero(t, account.FailedAttempts)
		assert.Nil(t, account.LockedUntil)
		assert.Nil(t, account.LastLogin)
		assert.Equal(t, now, account.CreatedAt)
	})

	t.Run("rejects empty hash", func(t *testing.T) {
		_, err := auth.NewAccount("alice", "alice@x.com", "", now)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := auth.NewAccount("alice", "nope", "hash", now)
		errutil.AssertErrorCode(t, err, auth.CodeInvalidEmail)
	})
}

func TestAccount_LoginStateRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	until := now.Add(time.Hour)
	account := &auth.Account{}

	account.ApplyLoginState(auth.LoginState{FailedAttempts: 5, LockedUntil: &until}, now)

	state := account.LoginState()
	assert.Equal(t, 5, state.FailedAttempts)
	assert.Equal(t, &until, state.LockedUntil)
	assert.Equal(t, now, account.UpdatedAt)
}
