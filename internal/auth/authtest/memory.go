// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

// Package authtest provides in-memory auth repositories for tests.
package authtest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/archiveplatform/archive/internal/auth"
)

// Accounts is an in-memory AccountRepository enforcing the same
// uniqueness rules as the database schema.
type Accounts struct {
	mu       sync.Mutex
	accounts map[ulid.ULID]auth.Account
}

// NewAccounts creates an empty Accounts.
func NewAccounts() *Accounts {
	return &Accounts{accounts: make(map[ulid.ULID]auth.Account)}
}

func (r *Accounts) Create(_ context.Context, account *auth.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if strings.EqualFold(a.Username, account.Username) || a.Email == account.Email {
			return auth.ErrDuplicate
		}
	}
	r.accounts[account.ID] = *account
	return nil
}

func (r *Accounts) GetByID(_ context.Context, id ulid.ULID) (*auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &a, nil
}

func (r *Accounts) GetByUsername(_ context.Context, username string) (*auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if strings.EqualFold(a.Username, username) {
			return &a, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r *Accounts) UpdateLoginState(_ context.Context, id ulid.ULID, state auth.LoginState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return auth.ErrNotFound
	}
	a.FailedAttempts = state.FailedAttempts
	a.LockedUntil = state.LockedUntil
	a.LastLogin = state.LastLogin
	r.accounts[id] = a
	return nil
}

func (r *Accounts) UpdatePassword(_ context.Context, id ulid.ULID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return auth.ErrNotFound
	}
	a.PasswordHash = passwordHash
	r.accounts[id] = a
	return nil
}

// Sessions is an in-memory SessionRepository.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]auth.Session
}

// NewSessions creates an empty Sessions.
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]auth.Session)}
}

func (r *Sessions) Create(_ context.Context, session *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.TokenHash] = *session
	return nil
}

func (r *Sessions) GetByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[tokenHash]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &s, nil
}

func (r *Sessions) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[tokenHash]; !ok {
		return auth.ErrNotFound
	}
	delete(r.sessions, tokenHash)
	return nil
}

func (r *Sessions) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, s := range r.sessions {
		if !s.ExpiresAt.After(before) {
			delete(r.sessions, k)
			n++
		}
	}
	return n, nil
}

// Count returns the number of stored sessions.
func (r *Sessions) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

var (
	_ auth.AccountRepository = (*Accounts)(nil)
	_ auth.SessionRepository = (*Sessions)(nil)
)
