// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/archiveplatform/archive/internal/archive"
	"github.com/archiveplatform/archive/internal/store"
)

// FolderRepository implements archive.FolderRepository using PostgreSQL.
type FolderRepository struct {
	pool store.Pool
}

// NewFolderRepository creates a new FolderRepository.
func NewFolderRepository(pool store.Pool) *FolderRepository {
	return &FolderRepository{pool: pool}
}

// Create inserts a folder.
func (r *FolderRepository) Create(ctx context.Context, folder *archive.Folder) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO folders (id, owner_id, parent_id, name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, folder.ID.String(), folder.OwnerID.String(), ulidToStringPtr(folder.ParentID), folder.Name, folder.CreatedAt)
	if err != nil {
		return oops.Code("FOLDER_CREATE_FAILED").
			With("operation", "insert folder").
			With("folder_id", folder.ID.String()).
			Wrap(err)
	}
	return nil
}

// Get retrieves a folder by ID.
func (r *FolderRepository) Get(ctx context.Context, id ulid.ULID) (*archive.Folder, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, parent_id, name, created_at
		FROM folders WHERE id = $1
	`, id.String())

	folder, err := scanFolder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("folder_id", id.String()).Wrap(archive.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("FOLDER_GET_FAILED").With("folder_id", id.String()).Wrap(err)
	}
	return folder, nil
}

// Delete removes a folder. Subfolders, files, notes and label attachments
// are removed by ON DELETE CASCADE.
func (r *FolderRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM folders WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("FOLDER_DELETE_FAILED").With("folder_id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("folder_id", id.String()).Wrap(archive.ErrNotFound)
	}
	return nil
}

// ListChildren returns the owner's folders directly under parentID.
func (r *FolderRepository) ListChildren(ctx context.Context, ownerID ulid.ULID, parentID *ulid.ULID) ([]*archive.Folder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, parent_id, name, created_at
		FROM folders
		WHERE owner_id = $1 AND parent_id IS NOT DISTINCT FROM $2
		ORDER BY name
	`, ownerID.String(), ulidToStringPtr(parentID))
	if err != nil {
		return nil, oops.Code("FOLDER_LIST_FAILED").With("owner_id", ownerID.String()).Wrap(err)
	}
	defer rows.Close()

	folders := make([]*archive.Folder, 0)
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate folders").Wrap(err)
	}
	return folders, nil
}

// AttachLabel links a label to a folder. Existing links are left alone.
func (r *FolderRepository) AttachLabel(ctx context.Context, folderID, labelID ulid.ULID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO folder_labels (folder_id, label_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, folderID.String(), labelID.String())
	if err != nil {
		return oops.Code("FOLDER_LABEL_ATTACH_FAILED").
			With("folder_id", folderID.String()).
			With("label_id", labelID.String()).
			Wrap(err)
	}
	return nil
}

// DetachLabel unlinks a label from a folder.
func (r *FolderRepository) DetachLabel(ctx context.Context, folderID, labelID ulid.ULID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM folder_labels WHERE folder_id = $1 AND label_id = $2
	`, folderID.String(), labelID.String())
	if err != nil {
		return oops.Code("FOLDER_LABEL_DETACH_FAILED").
			With("folder_id", folderID.String()).
			With("label_id", labelID.String()).
			Wrap(err)
	}
	return nil
}

// Labels returns the owner's labels attached to each folder, keyed by folder ID.
func (r *FolderRepository) Labels(ctx context.Context, ownerID ulid.ULID, folderIDs []ulid.ULID) (map[ulid.ULID][]*archive.Label, error) {
	ids := make([]string, len(folderIDs))
	for i, id := range folderIDs {
		ids[i] = id.String()
	}

	rows, err := r.pool.Query(ctx, `
		SELECT fl.folder_id, l.id, l.owner_id, l.name, l.color, l.created_at
		FROM folder_labels fl
		JOIN labels l ON l.id = fl.label_id
		WHERE l.owner_id = $1 AND fl.folder_id = ANY($2)
		ORDER BY l.name
	`, ownerID.String(), ids)
	if err != nil {
		return nil, oops.Code("FOLDER_LABELS_FAILED").With("owner_id", ownerID.String()).Wrap(err)
	}
	defer rows.Close()

	result := make(map[ulid.ULID][]*archive.Label)
	for rows.Next() {
		var (
			folderIDStr, idStr, ownerStr string
			label                        archive.Label
		)
		if err := rows.Scan(&folderIDStr, &idStr, &ownerStr, &label.Name, &label.Color, &label.CreatedAt); err != nil {
			return nil, oops.With("operation", "scan folder label").Wrap(err)
		}
		folderID, err := parseULID(folderIDStr, "folder_id")
		if err != nil {
			return nil, err
		}
		if label.ID, err = parseULID(idStr, "label_id"); err != nil {
			return nil, err
		}
		if label.OwnerID, err = parseULID(ownerStr, "owner_id"); err != nil {
			return nil, err
		}
		result[folderID] = append(result[folderID], &label)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate folder labels").Wrap(err)
	}
	return result, nil
}

// scanFolder scans one folder. pgx.ErrNoRows is returned unwrapped.
func scanFolder(row pgx.Row) (*archive.Folder, error) {
	var (
		folder          archive.Folder
		idStr, ownerStr string
		parentStr       *string
	)
	if err := row.Scan(&idStr, &ownerStr, &parentStr, &folder.Name, &folder.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers add context
		}
		return nil, oops.With("operation", "scan folder").Wrap(err)
	}

	var err error
	if folder.ID, err = parseULID(idStr, "folder_id"); err != nil {
		return nil, err
	}
	if folder.OwnerID, err = parseULID(ownerStr, "owner_id"); err != nil {
		return nil, err
	}
	if folder.ParentID, err = parseOptionalULID(parentStr, "parent_id"); err != nil {
		return nil, err
	}
	return &folder, nil
}

var _ archive.FolderRepository = (*FolderRepository)(nil)
