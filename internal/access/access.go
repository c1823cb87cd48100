// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

// Package access decides whether an account may act on an archive resource.
//
// The only rule is ownership: an account may touch a resource if and only if
// it created it. Every operation that takes a caller-supplied resource ID asks
// an Authorizer first, and treats a denial exactly like a missing resource so
// that callers cannot probe which IDs exist.
package access

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ResourceType names a kind of owned resource.
type ResourceType string

// Resource types.
const (
	ResourceFile   ResourceType = "file"
	ResourceFolder ResourceType = "folder"
	ResourceNote   ResourceType = "note"
	ResourceLabel  ResourceType = "label"
)

// ResourceTypes lists every known resource type.
func ResourceTypes() []ResourceType {
	return []ResourceType{ResourceFile, ResourceFolder, ResourceNote, ResourceLabel}
}

// Valid reports whether t is a known resource type.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceFile, ResourceFolder, ResourceNote, ResourceLabel:
		return true
	default:
		return false
	}
}

// ParseResourceType parses a resource type name, ignoring case and surrounding space.
func ParseResourceType(s string) (ResourceType, error) {
	t := ResourceType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", oops.Code("ACCESS_UNKNOWN_RESOURCE_TYPE").
			With("resource_type", s).
			Errorf("unknown resource type %q", s)
	}
	return t, nil
}

// Authorizer answers ownership questions.
type Authorizer interface {
	// Authorize returns true only if accountID owns the resource. Unknown types,
	// missing resources and lookup failures all return false.
	Authorize(ctx context.Context, accountID ulid.ULID, resourceType ResourceType, resourceID ulid.ULID) bool
}
