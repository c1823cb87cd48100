// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

// Package accesstest provides test helpers for access control.
package accesstest

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/archiveplatform/archive/internal/access"
)

// AllowAll is an Authorizer that allows everything.
type AllowAll struct{}

// Authorize always returns true.
func (AllowAll) Authorize(context.Context, ulid.ULID, access.ResourceType, ulid.ULID) bool {
	return true
}

// DenyAll is an Authorizer that denies everything.
type DenyAll struct{}

// Authorize always returns false.
func (DenyAll) Authorize(context.Context, ulid.ULID, access.ResourceType, ulid.ULID) bool {
	return false
}

// MapOwners is an OwnerResolver backed by a map.
type MapOwners struct {
	mu     sync.RWMutex
	owners map[access.ResourceType]map[ulid.ULID]ulid.ULID
	// Err, when set, is returned by every lookup.
	Err error
}

// NewMapOwners creates an empty MapOwners.
func NewMapOwners() *MapOwners {
	return &MapOwners{owners: make(map[access.ResourceType]map[ulid.ULID]ulid.ULID)}
}

// Set records owner as the owner of the resource.
func (m *MapOwners) Set(resourceType access.ResourceType, resourceID, owner ulid.ULID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owners[resourceType] == nil {
		m.owners[resourceType] = make(map[ulid.ULID]ulid.ULID)
	}
	m.owners[resourceType][resourceID] = owner
}

// OwnerOf implements access.OwnerResolver.
func (m *MapOwners) OwnerOf(_ context.Context, resourceType access.ResourceType, resourceID ulid.ULID) (ulid.ULID, error) {
	if m.Err != nil {
		return ulid.ULID{}, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	owner, ok := m.owners[resourceType][resourceID]
	if !ok {
		return ulid.ULID{}, oops.With("resource_id", resourceID.String()).Wrap(access.ErrNotFound)
	}
	return owner, nil
}

var (
	_ access.Authorizer    = AllowAll{}
	_ access.Authorizer    = DenyAll{}
	_ access.OwnerResolver = (*MapOwners)(nil)
)
