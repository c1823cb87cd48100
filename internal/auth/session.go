// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes      = 32 // 32 bytes = 64 hex chars
	DefaultSessionLifetime = 2 * time.Hour
)

// Session is an authenticated client session. The plaintext token is never stored.
type Session struct {
	ID        ulid.ULID
	AccountID ulid.ULID
	TokenHash string
	UserAgent string
	IPAddress string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionMeta carries client details recorded with a session.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// NewSession creates a validated Session.
func NewSession(accountID ulid.ULID, tokenHash string, meta SessionMeta, issuedAt, expiresAt time.Time) (*Session, error) {
	if accountID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_ACCOUNT").Errorf("account ID cannot be zero")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if !expiresAt.After(issuedAt) {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry must be after issue time")
	}
	return &Session{
		ID:        ulid.Make(),
		AccountID: accountID,
		TokenHash: tokenHash,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// IsExpiredAt returns true if the session is no longer valid at t.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// GenerateSessionToken creates a secure random token and its hash.
// The plaintext token is sent to the client; the hash is stored.
func GenerateSessionToken() (token, hash string, err error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}
	token = hex.EncodeToString(tokenBytes)
	return token, HashSessionToken(token), nil
}

// HashSessionToken computes the SHA256 hash of a session token.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session by its token hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// DeleteByTokenHash removes a session. Returns ErrNotFound if none matched.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteExpired removes sessions that expired before the given time and
	// returns the number removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// SessionIssuer issues, validates and revokes session tokens.
type SessionIssuer struct {
	sessions SessionRepository
	lifetime time.Duration
	clock    func() time.Time
}

// NewSessionIssuer creates a SessionIssuer. A nil clock uses time.Now.
func NewSessionIssuer(sessions SessionRepository, lifetime time.Duration, clock func() time.Time) (*SessionIssuer, error) {
	if sessions == nil {
		return nil, oops.Code("SESSION_ISSUER_INVALID").Errorf("sessions repository is required")
	}
	if lifetime <= 0 {
		return nil, oops.Code("SESSION_ISSUER_INVALID").
			With("lifetime", lifetime.String()).
			Errorf("session lifetime must be positive")
	}
	if clock == nil {
		clock = time.Now
	}
	return &SessionIssuer{sessions: sessions, lifetime: lifetime, clock: clock}, nil
}

// Lifetime returns the absolute session lifetime.
func (i *SessionIssuer) Lifetime() time.Duration {
	return i.lifetime
}

// Issue creates a session for the account and returns it with the plaintext token.
func (i *SessionIssuer) Issue(ctx context.Context, accountID ulid.ULID, meta SessionMeta) (*Session, string, error) {
	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", oops.Code(CodeSessionIssueFailed).Wrap(err)
	}

	now := i.clock()
	session, err := NewSession(accountID, tokenHash, meta, now, now.Add(i.lifetime))
	if err != nil {
		return nil, "", oops.Code(CodeSessionIssueFailed).Wrap(err)
	}

	if err := i.sessions.Create(ctx, session); err != nil {
		return nil, "", oops.Code(CodeSessionIssueFailed).
			With("operation", "persist session").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return session, token, nil
}

// Validate resolves a token to its session.
// Unknown and empty tokens are SESSION_INVALID; elapsed ones are SESSION_EXPIRED.
func (i *SessionIssuer) Validate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, oops.Code(CodeSessionInvalid).Errorf("invalid session token")
	}

	tokenHash := HashSessionToken(token)
	session, err := i.sessions.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeSessionInvalid).Errorf("invalid session token")
		}
		return nil, oops.Code(CodeSessionValidateFailed).
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if session.IsExpiredAt(i.clock()) {
		// Best effort, the sweeper removes it otherwise.
		_ = i.sessions.DeleteByTokenHash(ctx, tokenHash) //nolint:errcheck // expiry already decided
		return nil, oops.Code(CodeSessionExpired).Errorf("session has expired")
	}
	return session, nil
}

// Revoke destroys the session bound to token. Revoking an unknown token is not an error.
func (i *SessionIssuer) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := i.sessions.DeleteByTokenHash(ctx, HashSessionToken(token))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return oops.Code(CodeLogoutFailed).
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}
