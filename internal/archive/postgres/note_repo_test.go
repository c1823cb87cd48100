// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archiveplatform/archive/internal/archive"
	"github.com/archiveplatform/archive/pkg/errutil"
)

func TestNoteRepository_Create(t *testing.T) {
	ctx := context.Background()
	folder := ulid.Make()
	note := &archive.Note{
		ID: ulid.Make(), OwnerID: ulid.Make(), FolderID: &folder,
		Title: "Groceries", Content: "milk", CreatedAt: testTime, UpdatedAt: testTime,
	}

	mock := newMockPool(t)
	mock.ExpectExec(`INSERT INTO notes`).
		WithArgs(note.ID.String(), note.OwnerID.String(), strPtr(folder.String()),
			"Groceries", "milk", testTime, testTime).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, NewNoteRepository(mock).Create(ctx, note))
}

func TestNoteRepository_Update(t *testing.T) {
	ctx := context.Background()
	created := testTime.Add(-24 * time.Hour)

	t.Run("fills stored fields", func(t *testing.T) {
		mock := newMockPool(t)
		folder := ulid.Make()
		note := &archive.Note{ID: ulid.Make(), Title: "New", Content: "body", UpdatedAt: testTime}
		mock.ExpectQuery(`UPDATE notes SET`).
			WithArgs(note.ID.String(), "New", "body", testTime).
			WillReturnRows(pgxmock.NewRows([]string{"folder_id", "created_at"}).
				AddRow(strPtr(folder.String()), created))

		require.NoError(t, NewNoteRepository(mock).Update(ctx, note))
		require.NotNil(t, note.FolderID)
		assert.Equal(t, folder, *note.FolderID)
		assert.Equal(t, created, note.CreatedAt)
	})

	t.Run("missing", func(t *testing.T) {
		mock := newMockPool(t)
		note := &archive.Note{ID: ulid.Make(), Title: "New", UpdatedAt: testTime}
		mock.ExpectQuery(`UPDATE notes SET`).
			WithArgs(note.ID.String(), "New", "", testTime).
			WillReturnError(pgx.ErrNoRows)

		assert.ErrorIs(t, NewNoteRepository(mock).Update(ctx, note), archive.ErrNotFound)
	})

	t.Run("database error", func(t *testing.T) {
		mock := newMockPool(t)
		note := &archive.Note{ID: ulid.Make(), Title: "New", UpdatedAt: testTime}
		mock.ExpectQuery(`UPDATE notes SET`).
			WithArgs(note.ID.String(), "New", "", testTime).
			WillReturnError(errors.New("deadlock"))

		errutil.AssertErrorCode(t, NewNoteRepository(mock).Update(ctx, note), "NOTE_UPDATE_FAILED")
	})
}

func TestNoteRepository_Delete(t *testing.T) {
	ctx := context.Background()
	id := ulid.Make()

	mock := newMockPool(t)
	mock.ExpectExec(`DELETE FROM notes WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, NewNoteRepository(mock).Delete(ctx, id), archive.ErrNotFound)
}

func TestNoteRepository_List(t *testing.T) {
	ctx := context.Background()
	owner, folder, id := ulid.Make(), ulid.Make(), ulid.Make()

	mock := newMockPool(t)
	mock.ExpectQuery(`FROM notes`).
		WithArgs(owner.String(), strPtr(folder.String())).
		WillReturnRows(pgxmock.NewRows([]string{"id", "owner_id", "folder_id", "title", "content", "created_at", "updated_at"}).
			AddRow(id.String(), owner.String(), strPtr(folder.String()), "Groceries", "milk", testTime, testTime))

	notes, err := NewNoteRepository(mock).List(ctx, owner, &folder)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, id, notes[0].ID)
	assert.Equal(t, "milk", notes[0].Content)
	require.NotNil(t, notes[0].FolderID)
	assert.Equal(t, folder, *notes[0].FolderID)
}
