// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode fails unless err carries code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err, "expected an error with code %s", code)
	assert.Equal(t, code, Code(err), "error: %v", err)
}

// AssertErrorContext fails unless err is an oops error whose context maps key to value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	got, found := oopsErr.Context()[key]
	require.True(t, found, "context has no %q: %v", key, oopsErr.Context())
	assert.Equal(t, value, got)
}
