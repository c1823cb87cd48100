// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

// Package postgres resolves resource ownership from the archive tables.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/archiveplatform/archive/internal/access"
	"github.com/archiveplatform/archive/internal/store"
)

// ownerQueries maps each resource type to a fixed statement. Table names never
// come from caller input.
var ownerQueries = map[access.ResourceType]string{
	access.ResourceFile:   `SELECT owner_id FROM files WHERE id = $1`,
	access.ResourceFolder: `SELECT owner_id FROM folders WHERE id = $1`,
	access.ResourceNote:   `SELECT owner_id FROM notes WHERE id = $1`,
	access.ResourceLabel:  `SELECT owner_id FROM labels WHERE id = $1`,
}

// OwnerResolver implements access.OwnerResolver using PostgreSQL.
type OwnerResolver struct {
	pool store.Pool
}

// NewOwnerResolver creates a new OwnerResolver.
func NewOwnerResolver(pool store.Pool) *OwnerResolver {
	return &OwnerResolver{pool: pool}
}

// OwnerOf returns the owner of the resource.
func (r *OwnerResolver) OwnerOf(ctx context.Context, resourceType access.ResourceType, resourceID ulid.ULID) (ulid.ULID, error) {
	query, ok := ownerQueries[resourceType]
	if !ok {
		return ulid.ULID{}, oops.Code("ACCESS_UNKNOWN_RESOURCE_TYPE").
			With("resource_type", string(resourceType)).
			Errorf("unknown resource type %q", resourceType)
	}

	var ownerStr string
	err := r.pool.QueryRow(ctx, query, resourceID.String()).Scan(&ownerStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return ulid.ULID{}, oops.With("resource_type", string(resourceType)).
			With("resource_id", resourceID.String()).
			Wrap(access.ErrNotFound)
	}
	if err != nil {
		return ulid.ULID{}, oops.Code("ACCESS_OWNER_LOOKUP_FAILED").
			With("resource_type", string(resourceType)).
			With("resource_id", resourceID.String()).
			Wrap(err)
	}

	owner, err := ulid.Parse(ownerStr)
	if err != nil {
		return ulid.ULID{}, oops.Code("ACCESS_INVALID_OWNER_ID").With("owner_id", ownerStr).Wrap(err)
	}
	return owner, nil
}

var _ access.OwnerResolver = (*OwnerResolver)(nil)
