// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by repositories when a uniqueness constraint rejects a write.
var ErrDuplicate = errors.New("already exists")

// Error codes attached to oops errors returned by this package.
// Callers at the transport boundary map these to outward responses.
const (
	CodeInvalidUsername    = "AUTH_INVALID_USERNAME"
	CodeInvalidEmail       = "AUTH_INVALID_EMAIL"
	CodeWeakPassword       = "AUTH_WEAK_PASSWORD"
	CodeMissingCredentials = "AUTH_MISSING_CREDENTIALS"
	CodeDuplicateAccount   = "AUTH_DUPLICATE_ACCOUNT"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeAccountLocked      = "AUTH_ACCOUNT_LOCKED"
	CodeRegisterFailed     = "AUTH_REGISTER_FAILED"
	CodeLoginFailed        = "AUTH_LOGIN_FAILED"
	CodeLogoutFailed       = "AUTH_LOGOUT_FAILED"
	CodeAccountNotFound    = "AUTH_ACCOUNT_NOT_FOUND"

	CodeSessionInvalid        = "SESSION_INVALID"
	CodeSessionExpired        = "SESSION_EXPIRED"
	CodeSessionIssueFailed    = "SESSION_ISSUE_FAILED"
	CodeSessionValidateFailed = "SESSION_VALIDATE_FAILED"
)
