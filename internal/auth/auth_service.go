// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/archiveplatform/archive/pkg/errutil"
)

// dummyPasswordHash is verified when the username does not exist so that response
// time does not reveal which usernames are registered. It never matches a password.
//
//nolint:gosec // G101: not a credential.
const dummyPasswordHash = "$2a$12$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// invalidCredentialsMessage is shared by every credential failure.
const invalidCredentialsMessage = "invalid username or password"

// LoginRequest carries the inputs of a login attempt.
type LoginRequest struct {
	Username string
	Password string
	// PriorToken is the session token the client currently holds, if any.
	// It is revoked when a new session is issued.
	PriorToken string
	Meta       SessionMeta
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the time source used for lockout decisions.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLockoutPolicy overrides DefaultLockoutPolicy.
func WithLockoutPolicy(policy LockoutPolicy) Option {
	return func(s *Service) {
		s.lockout = policy
	}
}

// WithMetrics enables metric recording.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service provides registration, login, logout and session validation.
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher
	issuer   *SessionIssuer
	lockout  LockoutPolicy
	clock    func() time.Time
	logger   *slog.Logger
	metrics  *Metrics
}

// NewService creates a new Service.
func NewService(accounts AccountRepository, hasher PasswordHasher, issuer *SessionIssuer, opts ...Option) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if issuer == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("session issuer is required")
	}

	s := &Service{
		accounts: accounts,
		hasher:   hasher,
		issuer:   issuer,
		lockout:  DefaultLockoutPolicy(),
		clock:    time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.lockout.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Register creates an account and returns its ID.
func (s *Service) Register(ctx context.Context, username, email, password string) (ulid.ULID, error) {
	username = NormalizeUsername(username)
	email = NormalizeEmail(email)

	if err := ValidateUsername(username); err != nil {
		return ulid.ULID{}, err
	}
	if err := ValidateEmail(email); err != nil {
		return ulid.ULID{}, err
	}
	if err := ValidatePassword(password); err != nil {
		return ulid.ULID{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return ulid.ULID{}, oops.Code(CodeRegisterFailed).
			With("operation", "hash password").
			Wrap(err)
	}

	account, err := NewAccount(username, email, hash, s.clock())
	if err != nil {
		return ulid.ULID{}, err
	}

	// Uniqueness is enforced by the store; there is no pre-check to race against.
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return ulid.ULID{}, oops.Code(CodeDuplicateAccount).
				Errorf("username or email already registered")
		}
		return ulid.ULID{}, oops.Code(CodeRegisterFailed).
			With("operation", "create account").
			Wrap(err)
	}

	s.metrics.recordRegistration()
	s.logger.InfoContext(ctx, "account registered",
		"account_id", account.ID.String(),
		"username", account.Username)
	return account.ID, nil
}

// Login authenticates a user and issues a session.
// Returns the session, the plaintext token, and any error.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, string, error) {
	username := NormalizeUsername(req.Username)
	if username == "" || req.Password == "" {
		return nil, "", oops.Code(CodeMissingCredentials).Errorf("username and password are required")
	}

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.metrics.recordLogin(LoginResultError)
			return nil, "", oops.Code(CodeLoginFailed).
				With("operation", "get account by username").
				Wrap(err)
		}
		// Burn the same verification cost as a real account.
		_, _ = s.hasher.Verify(req.Password, dummyPasswordHash) //nolint:errcheck // result is irrelevant
		s.metrics.recordLogin(LoginResultInvalid)
		s.logger.InfoContext(ctx, "login failed", "username", username, "reason", "unknown username")
		return nil, "", oops.Code(CodeInvalidCredentials).Errorf(invalidCredentialsMessage)
	}

	now := s.clock()
	state := account.LoginState()

	// A locked account is rejected before any verification attempt is spent.
	if s.lockout.IsLocked(state, now) {
		s.metrics.recordLogin(LoginResultLocked)
		s.logger.InfoContext(ctx, "login rejected for locked account",
			"account_id", account.ID.String(),
			"username", account.Username)
		return nil, "", accountLockedError()
	}

	valid, err := s.hasher.Verify(req.Password, account.PasswordHash)
	if err != nil {
		s.metrics.recordLogin(LoginResultError)
		return nil, "", oops.Code(CodeLoginFailed).
			With("operation", "verify password").
			With("account_id", account.ID.String()).
			Wrap(err)
	}

	if !valid {
		return nil, "", s.recordFailure(ctx, account, state, now)
	}

	next := s.lockout.RecordSuccess(state, now)
	if err := s.accounts.UpdateLoginState(ctx, account.ID, next); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "failed to reset login state", err)
	}
	account.ApplyLoginState(next, now)

	if s.hasher.NeedsUpgrade(account.PasswordHash) {
		s.upgradeHash(ctx, account, req.Password)
	}

	if err := s.issuer.Revoke(ctx, req.PriorToken); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "failed to revoke prior session", err)
	}

	session, token, err := s.issuer.Issue(ctx, account.ID, req.Meta)
	if err != nil {
		s.metrics.recordLogin(LoginResultError)
		return nil, "", oops.With("operation", "issue session").Wrap(err)
	}

	s.metrics.recordLogin(LoginResultSuccess)
	s.metrics.recordSession()
	s.logger.InfoContext(ctx, "login succeeded",
		"account_id", account.ID.String(),
		"username", account.Username,
		"session_id", session.ID.String())
	return session, token, nil
}

// recordFailure advances the lockout state machine after a bad password and
// returns the error to report to the caller.
func (s *Service) recordFailure(ctx context.Context, account *Account, state LoginState, now time.Time) error {
	next := s.lockout.RecordFailure(state, now)
	// Read-then-write: concurrent failures may under-count, see package doc.
	if err := s.accounts.UpdateLoginState(ctx, account.ID, next); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "failed to record login failure", err)
	}
	account.ApplyLoginState(next, now)

	if s.lockout.IsLocked(next, now) {
		s.metrics.recordLogin(LoginResultLocked)
		s.metrics.recordLockout()
		s.logger.WarnContext(ctx, "account locked after repeated login failures",
			"account_id", account.ID.String(),
			"username", account.Username,
			"failed_attempts", next.FailedAttempts)
		return accountLockedError()
	}

	s.metrics.recordLogin(LoginResultInvalid)
	s.logger.InfoContext(ctx, "login failed",
		"account_id", account.ID.String(),
		"username", account.Username,
		"failed_attempts", next.FailedAttempts)
	return oops.Code(CodeInvalidCredentials).Errorf(invalidCredentialsMessage)
}

func (s *Service) upgradeHash(ctx context.Context, account *Account, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "failed to rehash password", err)
		return
	}
	if err := s.accounts.UpdatePassword(ctx, account.ID, newHash); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "failed to store upgraded password hash", err)
		return
	}
	account.PasswordHash = newHash
}

// Logout revokes the session bound to token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.issuer.Revoke(ctx, token); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "logout")
	return nil
}

// ValidateSession resolves a session token to its session.
func (s *Service) ValidateSession(ctx context.Context, token string) (*Session, error) {
	return s.issuer.Validate(ctx, token)
}

// Account returns the account with the given ID.
func (s *Service) Account(ctx context.Context, id ulid.ULID) (*Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeAccountNotFound).
				With("account_id", id.String()).
				Errorf("account not found")
		}
		return nil, oops.With("operation", "get account by id").Wrap(err)
	}
	return account, nil
}

// The unlock time is deliberately not disclosed.
func accountLockedError() error {
	return oops.Code(CodeAccountLocked).Errorf("account is temporarily locked, try again later")
}
