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

// NoteRepository implements archive.NoteRepository using PostgreSQL.
type NoteRepository struct {
	pool store.Pool
}

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(pool store.Pool) *NoteRepository {
	return &NoteRepository{pool: pool}
}

// Create inserts a note.
func (r *NoteRepository) Create(ctx context.Context, note *archive.Note) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notes (id, owner_id, folder_id, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, note.ID.String(), note.OwnerID.String(), ulidToStringPtr(note.FolderID),
		note.Title, note.Content, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return oops.Code("NOTE_CREATE_FAILED").With("note_id", note.ID.String()).Wrap(err)
	}
	return nil
}

// Update replaces title and content and fills the remaining fields of note
// from the stored row.
func (r *NoteRepository) Update(ctx context.Context, note *archive.Note) error {
	var folderStr *string
	err := r.pool.QueryRow(ctx, `
		UPDATE notes SET title = $2, content = $3, updated_at = $4
		WHERE id = $1
		RETURNING folder_id, created_at
	`, note.ID.String(), note.Title, note.Content, note.UpdatedAt).Scan(&folderStr, &note.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return oops.With("note_id", note.ID.String()).Wrap(archive.ErrNotFound)
		}
		return oops.Code("NOTE_UPDATE_FAILED").With("note_id", note.ID.String()).Wrap(err)
	}
	note.FolderID, err = parseOptionalULID(folderStr, "folder_id")
	return err
}

// Delete removes a note.
func (r *NoteRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("NOTE_DELETE_FAILED").With("note_id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("note_id", id.String()).Wrap(archive.ErrNotFound)
	}
	return nil
}

// List returns the owner's notes in folderID, newest first.
func (r *NoteRepository) List(ctx context.Context, ownerID ulid.ULID, folderID *ulid.ULID) ([]*archive.Note, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, folder_id, title, content, created_at, updated_at
		FROM notes
		WHERE owner_id = $1 AND folder_id IS NOT DISTINCT FROM $2
		ORDER BY updated_at DESC
	`, ownerID.String(), ulidToStringPtr(folderID))
	if err != nil {
		return nil, oops.Code("NOTE_LIST_FAILED").With("owner_id", ownerID.String()).Wrap(err)
	}
	defer rows.Close()

	notes := make([]*archive.Note, 0)
	for rows.Next() {
		var (
			note            archive.Note
			idStr, ownerStr string
			folderStr       *string
		)
		if err := rows.Scan(&idStr, &ownerStr, &folderStr, &note.Title, &note.Content,
			&note.CreatedAt, &note.UpdatedAt); err != nil {
			return nil, oops.With("operation", "scan note").Wrap(err)
		}
		if note.ID, err = parseULID(idStr, "note_id"); err != nil {
			return nil, err
		}
		if note.OwnerID, err = parseULID(ownerStr, "owner_id"); err != nil {
			return nil, err
		}
		if note.FolderID, err = parseOptionalULID(folderStr, "folder_id"); err != nil {
			return nil, err
		}
		notes = append(notes, &note)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate notes").Wrap(err)
	}
	return notes, nil
}

var _ archive.NoteRepository = (*NoteRepository)(nil)
