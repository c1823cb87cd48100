// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archiveplatform/archive/internal/access"
	"github.com/archiveplatform/archive/pkg/errutil"
)

func TestParseResourceType(t *testing.T) {
	tests := []struct {
		input string
		want  access.ResourceType
	}{
		{"file", access.ResourceFile},
		{"Folder", access.ResourceFolder},
		{" note ", access.ResourceNote},
		{"LABEL", access.ResourceLabel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := access.ParseResourceType(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "account", "files", "session"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := access.ParseResourceType(bad)
			errutil.AssertErrorCode(t, err, "ACCESS_UNKNOWN_RESOURCE_TYPE")
		})
	}
}

func TestResourceTypes(t *testing.T) {
	types := access.ResourceTypes()
	assert.Len(t, types, 4)
	for _, rt := range types {
		assert.True(t, rt.Valid(), "%s should be valid", rt)
	}
	assert.False(t, access.ResourceType("user").Valid())
}
