// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

// Package archivetest provides an in-memory archive store for tests.
package archivetest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/archiveplatform/archive/internal/access"
	"github.com/archiveplatform/archive/internal/archive"
)

// Store keeps archive rows in maps and mimics the schema's cascades.
// It also resolves owners so a real access.Guard can sit in front of it.
type Store struct {
	mu      sync.Mutex
	folders map[ulid.ULID]archive.Folder
	notes   map[ulid.ULID]archive.Note
	labels  map[ulid.ULID]archive.Label
	files   map[ulid.ULID]archive.File
	links   map[[2]ulid.ULID]bool
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		folders: make(map[ulid.ULID]archive.Folder),
		notes:   make(map[ulid.ULID]archive.Note),
		labels:  make(map[ulid.ULID]archive.Label),
		files:   make(map[ulid.ULID]archive.File),
		links:   make(map[[2]ulid.ULID]bool),
	}
}

// Repositories returns repositories backed by s.
func (s *Store) Repositories() archive.Repositories {
	return archive.Repositories{
		Folders: memFolders{s},
		Notes:   memNotes{s},
		Labels:  memLabels{s},
		Files:   memFiles{s},
	}
}

// OwnerOf implements access.OwnerResolver.
func (s *Store) OwnerOf(_ context.Context, resourceType access.ResourceType, id ulid.ULID) (ulid.ULID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		owner ulid.ULID
		ok    bool
	)
	switch resourceType {
	case access.ResourceFolder:
		var f archive.Folder
		f, ok = s.folders[id]
		owner = f.OwnerID
	case access.ResourceNote:
		var n archive.Note
		n, ok = s.notes[id]
		owner = n.OwnerID
	case access.ResourceLabel:
		var l archive.Label
		l, ok = s.labels[id]
		owner = l.OwnerID
	case access.ResourceFile:
		var f archive.File
		f, ok = s.files[id]
		owner = f.OwnerID
	}
	if !ok {
		return ulid.ULID{}, access.ErrNotFound
	}
	return owner, nil
}

func sameParent(a, b *ulid.ULID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// deleteFolderLocked removes a folder and everything that references it.
func (s *Store) deleteFolderLocked(id ulid.ULID) {
	delete(s.folders, id)
	for cid, f := range s.folders {
		if f.ParentID != nil && *f.ParentID == id {
			s.deleteFolderLocked(cid)
		}
	}
	for nid, n := range s.notes {
		if n.FolderID != nil && *n.FolderID == id {
			delete(s.notes, nid)
		}
	}
	for fid, f := range s.files {
		if f.FolderID != nil && *f.FolderID == id {
			delete(s.files, fid)
		}
	}
	for k := range s.links {
		if k[0] == id {
			delete(s.links, k)
		}
	}
}

type memFolders struct{ s *Store }

func (r memFolders) Create(_ context.Context, folder *archive.Folder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.folders[folder.ID] = *folder
	return nil
}

func (r memFolders) Get(_ context.Context, id ulid.ULID) (*archive.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.folders[id]
	if !ok {
		return nil, archive.ErrNotFound
	}
	return &f, nil
}

func (r memFolders) Delete(_ context.Context, id ulid.ULID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.folders[id]; !ok {
		return archive.ErrNotFound
	}
	r.s.deleteFolderLocked(id)
	return nil
}

func (r memFolders) ListChildren(_ context.Context, ownerID ulid.ULID, parentID *ulid.ULID) ([]*archive.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*archive.Folder, 0)
	for _, f := range r.s.folders {
		if f.OwnerID == ownerID && sameParent(f.ParentID, parentID) {
			out = append(out, &f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memFolders) AttachLabel(_ context.Context, folderID, labelID ulid.ULID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.links[[2]ulid.ULID{folderID, labelID}] = true
	return nil
}

func (r memFolders) DetachLabel(_ context.Context, folderID, labelID ulid.ULID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.links, [2]ulid.ULID{folderID, labelID})
	return nil
}

func (r memFolders) Labels(_ context.Context, ownerID ulid.ULID, folderIDs []ulid.ULID) (map[ulid.ULID][]*archive.Label, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[ulid.ULID][]*archive.Label)
	for _, fid := range folderIDs {
		for k := range r.s.links {
			if k[0] != fid {
				continue
			}
			l, ok := r.s.labels[k[1]]
			if ok && l.OwnerID == ownerID {
				out[fid] = append(out[fid], &l)
			}
		}
		sort.Slice(out[fid], func(i, j int) bool { return out[fid][i].Name < out[fid][j].Name })
	}
	return out, nil
}

type memNotes struct{ s *Store }

func (r memNotes) Create(_ context.Context, note *archive.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notes[note.ID] = *note
	return nil
}

func (r memNotes) Update(_ context.Context, note *archive.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.notes[note.ID]
	if !ok {
		return archive.ErrNotFound
	}
	stored.Title = note.Title
	stored.Content = note.Content
	stored.UpdatedAt = note.UpdatedAt
	r.s.notes[note.ID] = stored
	note.FolderID = stored.FolderID
	note.CreatedAt = stored.CreatedAt
	return nil
}

func (r memNotes) Delete(_ context.Context, id ulid.ULID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.notes[id]; !ok {
		return archive.ErrNotFound
	}
	delete(r.s.notes, id)
	return nil
}

func (r memNotes) List(_ context.Context, ownerID ulid.ULID, folderID *ulid.ULID) ([]*archive.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*archive.Note, 0)
	for _, n := range r.s.notes {
		if n.OwnerID == ownerID && sameParent(n.FolderID, folderID) {
			out = append(out, &n)
		}
	}
	return out, nil
}

type memLabels struct{ s *Store }

func (r memLabels) Create(_ context.Context, label *archive.Label) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.labels[label.ID] = *label
	return nil
}

func (r memLabels) List(_ context.Context, ownerID ulid.ULID) ([]*archive.Label, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*archive.Label, 0)
	for _, l := range r.s.labels {
		if l.OwnerID == ownerID {
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memFiles struct{ s *Store }

func (r memFiles) Create(_ context.Context, file *archive.File) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.files[file.ID] = *file
	return nil
}

func (r memFiles) Delete(_ context.Context, id ulid.ULID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.files[id]; !ok {
		return archive.ErrNotFound
	}
	delete(r.s.files, id)
	return nil
}

func (r memFiles) List(_ context.Context, ownerID ulid.ULID, folderID *ulid.ULID) ([]*archive.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*archive.File, 0)
	for _, f := range r.s.files {
		if f.OwnerID == ownerID && sameParent(f.FolderID, folderID) {
			out = append(out, &f)
		}
	}
	return out, nil
}

func (r memFiles) Search(_ context.Context, ownerID ulid.ULID, query string) ([]*archive.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*archive.File, 0)
	q := strings.ToLower(query)
	for _, f := range r.s.files {
		if f.OwnerID == ownerID && strings.Contains(strings.ToLower(f.OriginalName), q) {
			out = append(out, &f)
		}
	}
	return out, nil
}

var (
	_ access.OwnerResolver     = (*Store)(nil)
	_ archive.FolderRepository = memFolders{}
	_ archive.NoteRepository   = memNotes{}
	_ archive.LabelRepository  = memLabels{}
	_ archive.FileRepository   = memFiles{}
)
