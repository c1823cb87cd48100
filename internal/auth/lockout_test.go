// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archiveplatform/archive/internal/auth"
	"github.com/archiveplatform/archive/pkg/errutil"
)

func TestLockoutPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  auth.LockoutPolicy
		wantErr bool
	}{
		{"default", auth.DefaultLockoutPolicy(), false},
		{"zero threshold", auth.LockoutPolicy{Threshold: 0, Duration: time.Minute}, true},
		{"zero duration", auth.LockoutPolicy{Threshold: 3}, true},
		{"negative duration", auth.LockoutPolicy{Threshold: 3, Duration: -time.Minute}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr {
				errutil.AssertErrorCode(t, err, "LOCKOUT_INVALID_POLICY")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLockoutPolicy_RecordFailure(t *testing.T) {
	policy := auth.DefaultLockoutPolicy()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("failures below threshold only count", func(t *testing.T) {
		state := auth.LoginState{}
		for i := 1; i < auth.DefaultLockoutThreshold; i++ {
			state = policy.RecordFailure(state, now)
			assert.Equal(t, i, state.FailedAttempts)
			assert.Nil(t, state.LockedUntil)
			assert.Equal(t, auth.LockStateOpen, policy.State(state, now))
		}
	})

	t.Run("reaching threshold locks for duration", func(t *testing.T) {
		state := auth.LoginState{FailedAttempts: auth.DefaultLockoutThreshold - 1}
		state = policy.RecordFailure(state, now)

		require.NotNil(t, state.LockedUntil)
		assert.Equal(t, now.Add(auth.DefaultLockoutDuration), *state.LockedUntil)
		assert.True(t, policy.IsLocked(state, now))
		assert.True(t, policy.IsLocked(state, now.Add(29*time.Minute)))
	})

	t.Run("lock elapses lazily", func(t *testing.T) {
		until := now.Add(auth.DefaultLockoutDuration)
		state := auth.LoginState{FailedAttempts: 5, LockedUntil: &until}

		assert.False(t, policy.IsLocked(state, until))
		assert.Equal(t, auth.LockStateOpen, policy.State(state, until.Add(time.Second)))
	})

	t.Run("failure after expiry relocks immediately", func(t *testing.T) {
		until := now.Add(auth.DefaultLockoutDuration)
		state := auth.LoginState{FailedAttempts: 5, LockedUntil: &until}
		later := until.Add(time.Minute)

		state = policy.RecordFailure(state, later)

		assert.Equal(t, 6, state.FailedAttempts)
		assert.True(t, policy.IsLocked(state, later))
	})

	t.Run("preserves last login", func(t *testing.T) {
		last := now.Add(-time.Hour)
		state := policy.RecordFailure(auth.LoginState{LastLogin: &last}, now)
		assert.Equal(t, &last, state.LastLogin)
	})
}

func TestLockoutPolicy_RecordSuccess(t *testing.T) {
	policy := auth.DefaultLockoutPolicy()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	until := now.Add(-time.Minute)

	state := policy.RecordSuccess(auth.LoginState{FailedAttempts: 7, LockedUntil: &until}, now)

	assert.Zero(t, state.FailedAttempts)
	assert.Nil(t, state.LockedUntil)
	require.NotNil(t, state.LastLogin)
	assert.Equal(t, now, *state.LastLogin)
}

func TestLockState_String(t *testing.T) {
	assert.Equal(t, "open", auth.LockStateOpen.String())
	assert.Equal(t, "locked", auth.LockStateLocked.String())
	assert.Equal(t, "unknown", auth.LockState(42).String())
}
