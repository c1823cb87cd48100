// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package postgres

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/archiveplatform/archive/internal/archive"
	"github.com/archiveplatform/archive/internal/store"
)

// LabelRepository implements archive.LabelRepository using PostgreSQL.
type LabelRepository struct {
	pool store.Pool
}

// NewLabelRepository creates a new LabelRepository.
func NewLabelRepository(pool store.Pool) *LabelRepository {
	return &LabelRepository{pool: pool}
}

// Create inserts a label.
func (r *LabelRepository) Create(ctx context.Context, label *archive.Label) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO labels (id, owner_id, name, color, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, label.ID.String(), label.OwnerID.String(), label.Name, label.Color, label.CreatedAt)
	if err != nil {
		return oops.Code("LABEL_CREATE_FAILED").With("label_id", label.ID.String()).Wrap(err)
	}
	return nil
}

// List returns the owner's labels ordered by name.
func (r *LabelRepository) List(ctx context.Context, ownerID ulid.ULID) ([]*archive.Label, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, name, color, created_at
		FROM labels WHERE owner_id = $1 ORDER BY name
	`, ownerID.String())
	if err != nil {
		return nil, oops.Code("LABEL_LIST_FAILED").With("owner_id", ownerID.String()).Wrap(err)
	}
	defer rows.Close()

	labels := make([]*archive.Label, 0)
	for rows.Next() {
		var (
			label           archive.Label
			idStr, ownerStr string
		)
		if err := rows.Scan(&idStr, &ownerStr, &label.Name, &label.Color, &label.CreatedAt); err != nil {
			return nil, oops.With("operation", "scan label").Wrap(err)
		}
		if label.ID, err = parseULID(idStr, "label_id"); err != nil {
			return nil, err
		}
		if label.OwnerID, err = parseULID(ownerStr, "owner_id"); err != nil {
			return nil, err
		}
		labels = append(labels, &label)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate labels").Wrap(err)
	}
	return labels, nil
}

var _ archive.LabelRepository = (*LabelRepository)(nil)
