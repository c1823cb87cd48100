// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package archive

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Folder groups files, notes and subfolders. A nil ParentID is a root folder.
type Folder struct {
	ID        ulid.ULID
	OwnerID   ulid.ULID
	ParentID  *ulid.ULID
	Name      string
	CreatedAt time.Time
}

// File is the metadata of an uploaded file.
type File struct {
	ID           ulid.ULID
	OwnerID      ulid.ULID
	FolderID     *ulid.ULID
	OriginalName string
	// StoredName is unique across the archive and safe to use as a blob key.
	StoredName string
	SizeBytes  int64
	UploadedAt time.Time
}

// Note is a titled text note.
type Note struct {
	ID        ulid.ULID
	OwnerID   ulid.ULID
	FolderID  *ulid.ULID
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Label is a colored tag attachable to folders.
type Label struct {
	ID        ulid.ULID
	OwnerID   ulid.ULID
	Name      string
	Color     string
	CreatedAt time.Time
}

// FolderEntry is a child folder with its labels.
type FolderEntry struct {
	Folder *Folder
	Labels []*Label
}

// Listing is the content of one folder, or of the root when Folder is nil.
type Listing struct {
	Folder  *Folder
	Folders []FolderEntry
	Files   []*File
	Notes   []*Note
}

// FolderRepository persists folders and their label attachments.
type FolderRepository interface {
	Create(ctx context.Context, folder *Folder) error
	Get(ctx context.Context, id ulid.ULID) (*Folder, error)
	// Delete removes the folder; children go with it through cascades.
	Delete(ctx context.Context, id ulid.ULID) error
	// ListChildren returns the owner's folders under parentID (roots when nil).
	ListChildren(ctx context.Context, ownerID ulid.ULID, parentID *ulid.ULID) ([]*Folder, error)
	// AttachLabel is idempotent.
	AttachLabel(ctx context.Context, folderID, labelID ulid.ULID) error
	// DetachLabel is idempotent.
	DetachLabel(ctx context.Context, folderID, labelID ulid.ULID) error
	// Labels returns the owner's labels attached to each of folderIDs.
	Labels(ctx context.Context, ownerID ulid.ULID, folderIDs []ulid.ULID) (map[ulid.ULID][]*Label, error)
}

// NoteRepository persists notes.
type NoteRepository interface {
	Create(ctx context.Context, note *Note) error
	Update(ctx context.Context, note *Note) error
	Delete(ctx context.Context, id ulid.ULID) error
	List(ctx context.Context, ownerID ulid.ULID, folderID *ulid.ULID) ([]*Note, error)
}

// LabelRepository persists labels.
type LabelRepository interface {
	Create(ctx context.Context, label *Label) error
	List(ctx context.Context, ownerID ulid.ULID) ([]*Label, error)
}

// FileRepository persists file metadata.
type FileRepository interface {
	Create(ctx context.Context, file *File) error
	Delete(ctx context.Context, id ulid.ULID) error
	List(ctx context.Context, ownerID ulid.ULID, folderID *ulid.ULID) ([]*File, error)
	// Search matches query as a case-insensitive substring of the original name.
	Search(ctx context.Context, ownerID ulid.ULID, query string) ([]*File, error)
}

// Repositories bundles the stores a Service needs.
type Repositories struct {
	Folders FolderRepository
	Notes   NoteRepository
	Labels  LabelRepository
	Files   FileRepository
}
