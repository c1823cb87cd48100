// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package archive

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/archiveplatform/archive/internal/access"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the time source for created and updated timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// Service implements owner-scoped archive operations.
type Service struct {
	repos  Repositories
	authz  access.Authorizer
	clock  func() time.Time
	logger *slog.Logger
}

// NewService creates a new Service.
func NewService(repos Repositories, authz access.Authorizer, opts ...Option) (*Service, error) {
	switch {
	case repos.Folders == nil:
		return nil, oops.Code("ARCHIVE_SERVICE_INVALID").Errorf("folder repository is required")
	case repos.Notes == nil:
		return nil, oops.Code("ARCHIVE_SERVICE_INVALID").Errorf("note repository is required")
	case repos.Labels == nil:
		return nil, oops.Code("ARCHIVE_SERVICE_INVALID").Errorf("label repository is required")
	case repos.Files == nil:
		return nil, oops.Code("ARCHIVE_SERVICE_INVALID").Errorf("file repository is required")
	case authz == nil:
		return nil, oops.Code("ARCHIVE_SERVICE_INVALID").Errorf("authorizer is required")
	}

	s := &Service{
		repos:  repos,
		authz:  authz,
		clock:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// guard returns RESOURCE_NOT_FOUND unless owner owns the resource.
func (s *Service) guard(ctx context.Context, owner ulid.ULID, resourceType access.ResourceType, id ulid.ULID) error {
	if !s.authz.Authorize(ctx, owner, resourceType, id) {
		return notFoundError(resourceType, id)
	}
	return nil
}

// guardOptional guards id when present. A nil id means the root.
func (s *Service) guardOptional(ctx context.Context, owner ulid.ULID, resourceType access.ResourceType, id *ulid.ULID) error {
	if id == nil {
		return nil
	}
	return s.guard(ctx, owner, resourceType, *id)
}

// storeError converts a repository error. A row that vanished after the
// ownership check is still reported as not found.
func storeError(err error, operation string, resourceType access.ResourceType, id ulid.ULID) error {
	if errors.Is(err, ErrNotFound) {
		return notFoundError(resourceType, id)
	}
	return oops.With("operation", operation).Wrap(err)
}

// CreateFolder creates a folder under parentID, or at the root when parentID is nil.
func (s *Service) CreateFolder(ctx context.Context, owner ulid.ULID, name string, parentID *ulid.ULID) (*Folder, error) {
	name = strings.TrimSpace(name)
	if err := ValidateFolderName(name); err != nil {
		return nil, err
	}
	if err := s.guardOptional(ctx, owner, access.ResourceFolder, parentID); err != nil {
		return nil, err
	}

	folder := &Folder{
		ID:        ulid.Make(),
		OwnerID:   owner,
		ParentID:  parentID,
		Name:      name,
		CreatedAt: s.clock(),
	}
	if err := s.repos.Folders.Create(ctx, folder); err != nil {
		return nil, oops.With("operation", "create folder").Wrap(err)
	}

	s.logger.InfoContext(ctx, "folder created",
		"account_id", owner.String(),
		"folder_id", folder.ID.String())
	return folder, nil
}

// DeleteFolder deletes a folder with everything inside it.
func (s *Service) DeleteFolder(ctx context.Context, owner, id ulid.ULID) error {
	if err := s.guard(ctx, owner, access.ResourceFolder, id); err != nil {
		return err
	}
	if err := s.repos.Folders.Delete(ctx, id); err != nil {
		return storeError(err, "delete folder", access.ResourceFolder, id)
	}
	s.logger.InfoContext(ctx, "folder deleted",
		"account_id", owner.String(),
		"folder_id", id.String())
	return nil
}

// ListFolder returns the owner's child folders, files and notes of folderID,
// or of the root when folderID is nil. Child folders carry their labels.
func (s *Service) ListFolder(ctx context.Context, owner ulid.ULID, folderID *ulid.ULID) (*Listing, error) {
	listing := &Listing{}
	if folderID != nil {
		if err := s.guard(ctx, owner, access.ResourceFolder, *folderID); err != nil {
			return nil, err
		}
		folder, err := s.repos.Folders.Get(ctx, *folderID)
		if err != nil {
			return nil, storeError(err, "get folder", access.ResourceFolder, *folderID)
		}
		listing.Folder = folder
	}

	folders, err := s.repos.Folders.ListChildren(ctx, owner, folderID)
	if err != nil {
		return nil, oops.With("operation", "list folders").Wrap(err)
	}
	files, err := s.repos.Files.List(ctx, owner, folderID)
	if err != nil {
		return nil, oops.With("operation", "list files").Wrap(err)
	}
	notes, err := s.repos.Notes.List(ctx, owner, folderID)
	if err != nil {
		return nil, oops.With("operation", "list notes").Wrap(err)
	}

	ids := make([]ulid.ULID, 0, len(folders))
	for _, f := range folders {
		ids = append(ids, f.ID)
	}
	labels := map[ulid.ULID][]*Label{}
	if len(ids) > 0 {
		labels, err = s.repos.Folders.Labels(ctx, owner, ids)
		if err != nil {
			return nil, oops.With("operation", "list folder labels").Wrap(err)
		}
	}

	listing.Folders = make([]FolderEntry, 0, len(folders))
	for _, f := range folders {
		listing.Folders = append(listing.Folders, FolderEntry{Folder: f, Labels: labels[f.ID]})
	}
	listing.Files = files
	listing.Notes = notes
	return listing, nil
}

// CreateNote creates a note in folderID, or at the root when folderID is nil.
func (s *Service) CreateNote(ctx context.Context, owner ulid.ULID, title, content string, folderID *ulid.ULID) (*Note, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if err := ValidateNoteTitle(title); err != nil {
		return nil, err
	}
	if err := ValidateNoteContent(content); err != nil {
		return nil, err
	}
	if err := s.guardOptional(ctx, owner, access.ResourceFolder, folderID); err != nil {
		return nil, err
	}

	now := s.clock()
	note := &Note{
		ID:        ulid.Make(),
		OwnerID:   owner,
		FolderID:  folderID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repos.Notes.Create(ctx, note); err != nil {
		return nil, oops.With("operation", "create note").Wrap(err)
	}

	s.logger.InfoContext(ctx, "note created",
		"account_id", owner.String(),
		"note_id", note.ID.String())
	return note, nil
}

// EditNote replaces the title and content of a note.
func (s *Service) EditNote(ctx context.Context, owner, id ulid.ULID, title, content string) (*Note, error) {
	if err := s.guard(ctx, owner, access.ResourceNote, id); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if err := ValidateNoteTitle(title); err != nil {
		return nil, err
	}
	if err := ValidateNoteContent(content); err != nil {
		return nil, err
	}

	note := &Note{
		ID:        id,
		OwnerID:   owner,
		Title:     title,
		Content:   content,
		UpdatedAt: s.clock(),
	}
	if err := s.repos.Notes.Update(ctx, note); err != nil {
		return nil, storeError(err, "update note", access.ResourceNote, id)
	}
	return note, nil
}

// DeleteNote deletes a note.
func (s *Service) DeleteNote(ctx context.Context, owner, id ulid.ULID) error {
	if err := s.guard(ctx, owner, access.ResourceNote, id); err != nil {
		return err
	}
	if err := s.repos.Notes.Delete(ctx, id); err != nil {
		return storeError(err, "delete note", access.ResourceNote, id)
	}
	return nil
}

// CreateLabel creates a label.
func (s *Service) CreateLabel(ctx context.Context, owner ulid.ULID, name, color string) (*Label, error) {
	name = strings.TrimSpace(name)
	color = strings.TrimSpace(color)
	if err := ValidateLabelName(name); err != nil {
		return nil, err
	}
	if err := ValidateColor(color); err != nil {
		return nil, err
	}

	label := &Label{
		ID:        ulid.Make(),
		OwnerID:   owner,
		Name:      name,
		Color:     color,
		CreatedAt: s.clock(),
	}
	if err := s.repos.Labels.Create(ctx, label); err != nil {
		return nil, oops.With("operation", "create label").Wrap(err)
	}
	return label, nil
}

// ListLabels returns every label of the owner.
func (s *Service) ListLabels(ctx context.Context, owner ulid.ULID) ([]*Label, error) {
	labels, err := s.repos.Labels.List(ctx, owner)
	if err != nil {
		return nil, oops.With("operation", "list labels").Wrap(err)
	}
	return labels, nil
}

// AttachLabel attaches a label to a folder. Attaching twice is a no-op.
func (s *Service) AttachLabel(ctx context.Context, owner, folderID, labelID ulid.ULID) error {
	if err := s.guard(ctx, owner, access.ResourceFolder, folderID); err != nil {
		return err
	}
	if err := s.guard(ctx, owner, access.ResourceLabel, labelID); err != nil {
		return err
	}
	if err := s.repos.Folders.AttachLabel(ctx, folderID, labelID); err != nil {
		return oops.With("operation", "attach label").Wrap(err)
	}
	return nil
}

// DetachLabel removes a label from a folder. Detaching a label that is not
// attached is a no-op.
func (s *Service) DetachLabel(ctx context.Context, owner, folderID, labelID ulid.ULID) error {
	if err := s.guard(ctx, owner, access.ResourceFolder, folderID); err != nil {
		return err
	}
	if err := s.repos.Folders.DetachLabel(ctx, folderID, labelID); err != nil {
		return oops.With("operation", "detach label").Wrap(err)
	}
	return nil
}

// AddFile records an uploaded file in folderID, or at the root when folderID is nil.
func (s *Service) AddFile(ctx context.Context, owner ulid.ULID, filename string, size int64, folderID *ulid.ULID) (*File, error) {
	if err := s.guardOptional(ctx, owner, access.ResourceFolder, folderID); err != nil {
		return nil, err
	}
	if !AllowedFile(filename) {
		return nil, oops.Code(CodeFileTypeNotAllowed).
			With("filename", filename).
			Errorf("file type not allowed")
	}
	if size < 0 || size > MaxFileSize {
		return nil, oops.Code(CodeFileTooLarge).
			With("size", size).
			With("max", MaxFileSize).
			Errorf("file too large (max 16MB)")
	}

	name := SanitizeFilename(filename)
	if name == "" || !AllowedFile(name) {
		return nil, oops.Code(CodeInvalidFilename).
			With("filename", filename).
			Errorf("invalid filename")
	}

	id := ulid.Make()
	file := &File{
		ID:           id,
		OwnerID:      owner,
		FolderID:     folderID,
		OriginalName: name,
		StoredName:   strings.ToLower(id.String()) + "_" + name,
		SizeBytes:    size,
		UploadedAt:   s.clock(),
	}
	if err := s.repos.Files.Create(ctx, file); err != nil {
		return nil, oops.With("operation", "create file").Wrap(err)
	}

	s.logger.InfoContext(ctx, "file added",
		"account_id", owner.String(),
		"file_id", file.ID.String(),
		"size", size)
	return file, nil
}

// DeleteFile deletes a file record.
func (s *Service) DeleteFile(ctx context.Context, owner, id ulid.ULID) error {
	if err := s.guard(ctx, owner, access.ResourceFile, id); err != nil {
		return err
	}
	if err := s.repos.Files.Delete(ctx, id); err != nil {
		return storeError(err, "delete file", access.ResourceFile, id)
	}
	return nil
}

// SearchFiles returns the owner's files whose name contains query. An empty
// or overlong query matches nothing.
func (s *Service) SearchFiles(ctx context.Context, owner ulid.ULID, query string) ([]*File, error) {
	query = strings.TrimSpace(query)
	if query == "" || utf8.RuneCountInString(query) > MaxSearchQueryLength {
		return []*File{}, nil
	}
	files, err := s.repos.Files.Search(ctx, owner, query)
	if err != nil {
		return nil, oops.With("operation", "search files").Wrap(err)
	}
	return files, nil
}
