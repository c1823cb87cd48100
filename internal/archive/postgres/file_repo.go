// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/archiveplatform/archive/internal/archive"
	"github.com/archiveplatform/archive/internal/store"
)

const fileColumns = `id, owner_id, folder_id, original_name, stored_name, size_bytes, uploaded_at`

// FileRepository implements archive.FileRepository using PostgreSQL.
type FileRepository struct {
	pool store.Pool
}

// NewFileRepository creates a new FileRepository.
func NewFileRepository(pool store.Pool) *FileRepository {
	return &FileRepository{pool: pool}
}

// Create inserts file metadata.
func (r *FileRepository) Create(ctx context.Context, file *archive.File) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO files (`+fileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, file.ID.String(), file.OwnerID.String(), ulidToStringPtr(file.FolderID),
		file.OriginalName, file.StoredName, file.SizeBytes, file.UploadedAt)
	if err != nil {
		return oops.Code("FILE_CREATE_FAILED").With("file_id", file.ID.String()).Wrap(err)
	}
	return nil
}

// Delete removes file metadata.
func (r *FileRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("FILE_DELETE_FAILED").With("file_id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("file_id", id.String()).Wrap(archive.ErrNotFound)
	}
	return nil
}

// List returns the owner's files in folderID, newest first.
func (r *FileRepository) List(ctx context.Context, ownerID ulid.ULID, folderID *ulid.ULID) ([]*archive.File, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+fileColumns+`
		FROM files
		WHERE owner_id = $1 AND folder_id IS NOT DISTINCT FROM $2
		ORDER BY uploaded_at DESC
	`, ownerID.String(), ulidToStringPtr(folderID))
	if err != nil {
		return nil, oops.Code("FILE_LIST_FAILED").With("owner_id", ownerID.String()).Wrap(err)
	}
	defer rows.Close()

	return scanFiles(rows)
}

// Search returns the owner's files whose original name contains query,
// ignoring case. LIKE wildcards in query match literally.
func (r *FileRepository) Search(ctx context.Context, ownerID ulid.ULID, query string) ([]*archive.File, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+fileColumns+`
		FROM files
		WHERE owner_id = $1 AND original_name ILIKE $2 ESCAPE '\'
		ORDER BY uploaded_at DESC
	`, ownerID.String(), containsPattern(query))
	if err != nil {
		return nil, oops.Code("FILE_SEARCH_FAILED").With("owner_id", ownerID.String()).Wrap(err)
	}
	defer rows.Close()

	return scanFiles(rows)
}

func scanFiles(rows pgx.Rows) ([]*archive.File, error) {
	files := make([]*archive.File, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate files").Wrap(err)
	}
	return files, nil
}

func scanFile(row pgx.Row) (*archive.File, error) {
	var (
		file            archive.File
		idStr, ownerStr string
		folderStr       *string
	)
	if err := row.Scan(&idStr, &ownerStr, &folderStr, &file.OriginalName, &file.StoredName,
		&file.SizeBytes, &file.UploadedAt); err != nil {
		return nil, oops.With("operation", "scan file").Wrap(err)
	}

	var err error
	if file.ID, err = parseULID(idStr, "file_id"); err != nil {
		return nil, err
	}
	if file.OwnerID, err = parseULID(ownerStr, "owner_id"); err != nil {
		return nil, err
	}
	if file.FolderID, err = parseOptionalULID(folderStr, "folder_id"); err != nil {
		return nil, err
	}
	return &file, nil
}

var _ archive.FileRepository = (*FileRepository)(nil)
