// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// MaxPasswordBytes is the longest password bcrypt accepts, in bytes.
const MaxPasswordBytes = 72

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Account represents a registered user.
type Account struct {
	ID             ulid.ULID
	Username       string
	Email          string
	PasswordHash   string
	FailedAttempts int
	LockedUntil    *time.Time
	LastLogin      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAccount creates a validated Account. The password must already be hashed.
func NewAccount(username, email, passwordHash string, now time.Time) (*Account, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	return &Account{
		ID:           ulid.Make(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// LoginState returns the lockout-relevant fields of the account.
func (a *Account) LoginState() LoginState {
	return LoginState{
		FailedAttempts: a.FailedAttempts,
		LockedUntil:    a.LockedUntil,
		LastLogin:      a.LastLogin,
	}
}

// ApplyLoginState copies state onto the account.
func (a *Account) ApplyLoginState(state LoginState, now time.Time) {
	a.FailedAttempts = state.FailedAttempts
	a.LockedUntil = state.LockedUntil
	a.LastLogin = state.LastLogin
	a.UpdatedAt = now
}

// NormalizeUsername trims surrounding whitespace.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// NormalizeEmail trims surrounding whitespace and lowercases.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateUsername checks the username length in characters.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return oops.Code(CodeInvalidUsername).
			With("min", MinUsernameLength).
			With("max", MaxUsernameLength).
			Errorf("username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength)
	}
	return nil
}

// ValidateEmail checks the email address format.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return oops.Code(CodeInvalidEmail).Errorf("invalid email address")
	}
	return nil
}

// ValidatePassword checks password strength:
// at least MinPasswordLength characters with an uppercase letter, a lowercase letter and a digit,
// and no more than MaxPasswordBytes bytes.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return oops.Code(CodeWeakPassword).
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return oops.Code(CodeWeakPassword).
			With("max_bytes", MaxPasswordBytes).
			Errorf("password must be at most %d bytes", MaxPasswordBytes)
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		return oops.Code(CodeWeakPassword).Errorf("password must contain an uppercase letter")
	}
	if !lower {
		return oops.Code(CodeWeakPassword).Errorf("password must contain a lowercase letter")
	}
	if !digit {
		return oops.Code(CodeWeakPassword).Errorf("password must contain a digit")
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account. Returns an error wrapping ErrDuplicate when the
	// username or email is already taken.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByUsername retrieves an account by username (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// UpdateLoginState writes the failed-attempt counter, lock and last login
	// with a single row update keyed by id.
	UpdateLoginState(ctx context.Context, id ulid.ULID, state LoginState) error

	// UpdatePassword updates only the password hash.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error
}
