// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package auth

import (
	"time"

	"github.com/samber/oops"
)

// Lockout defaults.
const (
	// DefaultLockoutThreshold is the number of consecutive failures that locks an account.
	DefaultLockoutThreshold = 5

	// DefaultLockoutDuration is how long a locked account rejects logins.
	DefaultLockoutDuration = 30 * time.Minute
)

// LockState is the lockout state of an account at a point in time.
type LockState int

// Lock states.
const (
	LockStateOpen LockState = iota
	LockStateLocked
)

// String returns the state name.
func (s LockState) String() string {
	switch s {
	case LockStateOpen:
		return "open"
	case LockStateLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// LoginState is the persisted part of an account touched by every login attempt.
type LoginState struct {
	FailedAttempts int
	LockedUntil    *time.Time
	LastLogin      *time.Time
}

// LockoutPolicy drives the failed-attempt state machine.
// All transitions are pure; callers persist the returned state.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy returns the policy of 5 failures / 30 minutes.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		Threshold: DefaultLockoutThreshold,
		Duration:  DefaultLockoutDuration,
	}
}

// Validate checks the policy parameters.
func (p LockoutPolicy) Validate() error {
	if p.Threshold < 1 {
		return oops.Code("LOCKOUT_INVALID_POLICY").
			With("threshold", p.Threshold).
			Errorf("lockout threshold must be at least 1")
	}
	if p.Duration <= 0 {
		return oops.Code("LOCKOUT_INVALID_POLICY").
			With("duration", p.Duration.String()).
			Errorf("lockout duration must be positive")
	}
	return nil
}

// State evaluates the lock state at now. An elapsed lock is OPEN.
func (p LockoutPolicy) State(state LoginState, now time.Time) LockState {
	if state.LockedUntil != nil && now.Before(*state.LockedUntil) {
		return LockStateLocked
	}
	return LockStateOpen
}

// IsLocked returns true if the account rejects logins at now.
func (p LockoutPolicy) IsLocked(state LoginState, now time.Time) bool {
	return p.State(state, now) == LockStateLocked
}

// RecordFailure returns the state after a failed verification.
// Reaching the threshold locks the account until now + Duration. Because the counter
// is not reset when a lock elapses, a failure right after expiry locks again.
func (p LockoutPolicy) RecordFailure(state LoginState, now time.Time) LoginState {
	next := LoginState{
		FailedAttempts: state.FailedAttempts + 1,
		LastLogin:      state.LastLogin,
	}
	if next.FailedAttempts >= p.Threshold {
		until := now.Add(p.Duration)
		next.LockedUntil = &until
	}
	return next
}

// RecordSuccess returns the state after a successful verification.
func (p LockoutPolicy) RecordSuccess(_ LoginState, now time.Time) LoginState {
	last := now
	return LoginState{
		FailedAttempts: 0,
		LockedUntil:    nil,
		LastLogin:      &last,
	}
}
