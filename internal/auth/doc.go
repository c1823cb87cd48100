// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

// Package auth provides authentication primitives for the archive platform.
//
// # Domain Types
//
// Domain types should be created using their constructors:
//   - NewAccount - creates an Account with a validated username, email and password hash
//   - NewSession - creates a Session bound to an account with an absolute expiry
//
// Direct struct initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types from these constructors.
//
// # Components
//
//   - PasswordHasher - one-way salted hashing (bcrypt, with argon2id verification for
//     legacy digests)
//   - LockoutPolicy - the per-account failed-attempt state machine; lock expiry is
//     evaluated lazily against the clock, there is no background timer
//   - SessionIssuer - issues, validates and revokes opaque session tokens
//   - Service - registration, login, logout and session validation
//
// # Consistency
//
// The failed-attempt counter is read with the account and written back with a single
// row update keyed by account id. Concurrent failures against the same account can
// under-count; the guarantee is that an account eventually locks after at least
// LockoutPolicy.Threshold failures, not that every failure is counted.
package auth
