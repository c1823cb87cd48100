// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package web

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/archiveplatform/archive/internal/access"
	"github.com/archiveplatform/archive/internal/archive"
)

// pathID parses a path variable. A malformed ID cannot name an existing
// resource, so it is reported as not found.
func pathID(r *http.Request, name string, resourceType access.ResourceType) (ulid.ULID, error) {
	raw := mux.Vars(r)[name]
	id, err := ulid.ParseStrict(raw)
	if err != nil {
		return ulid.ULID{}, oops.Code(archive.CodeResourceNotFound).
			With("resource_type", string(resourceType)).
			Errorf("%s not found", resourceType)
	}
	return id, nil
}

// bodyID parses an optional ID from a request body.
func bodyID(raw *string, resourceType access.ResourceType) (*ulid.ULID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := ulid.ParseStrict(*raw)
	if err != nil {
		return nil, oops.Code(archive.CodeResourceNotFound).
			With("resource_type", string(resourceType)).
			Errorf("%s not found", resourceType)
	}
	return &id, nil
}

func (s *Server) handleListFolder(w http.ResponseWriter, r *http.Request, accountID ulid.ULID) {
	var folderID *ulid.ULID
	if _, ok := mux.Vars(r)["id"]; ok {
		id, err := pathID(r, "id", access.ResourceFolder)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		folderID = &id
	}

	listing, err := s.archive.ListFolder(r.Context(), accountID, folderID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newListingResponse(listing))
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request, accountID ulid.ULID) {
	var req createFolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	parentID, err := bodyID(req.ParentID, access.ResourceFolder)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	folder, err := s.archive.CreateFolder(r.Context(), accountID, req.Name, parentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newFolderResponse(folder, nil))
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request, accountID ulid.ULID) {
	id, err := pathID(r, "id", access.ResourceFolder)
	if err == nil {
		err = s.archive.DeleteFolder(r.Context(), accountID, id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAttachLabel(w http.ResponseWriter, r *http.Request, accountID ulid.ULID) {
	s.changeLabel(w, r, accountID, s.archive.AttachLabel)
}

func (s *Server) handleDetachLabel(w http.ResponseWriter, r *http.Request, accountID ulid.ULID) {
	s.changeLabel(w, r, accountID, s.archive.DetachLabel)
}

func (s *Server) changeLabel(w http.ResponseWriter, r *http.Request, accountID ulid.ULID,
	op func(ctx context.Context, owner, folderID, labelID ulid.ULID) error,
) {
	folderID, err := pathID(r, "id", access.ResourceFolder)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	labelID, err := pathID(r, "labelID", access.ResourceLabel)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := op(r.Context(), accountID, folderID, labelID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request, accountID ulid.ULID) {
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	folderID, err := bodyID(req.FolderID, access.ResourceFolder)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	note, err := s.archive.CreateNote(r.Context(), accountID, req.Title, req.Content, folderID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newNoteResponse(note))
}

func (s *Server) handleEditNote(w http.ResponseWriter, r *http.Request, accountID ulid.ULID) {
	id, err := pathID(r, "id", access.ResourceNote)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	note, err := s.archive.EditNote(r.Context(), accountID, id, req.Title, req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newNoteResponse(note))
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request, accountID ulid.ULID) {
	id, err := pathID(r, "id", access.ResourceNote)
	if err == nil {
		err = s.archive.DeleteNote(r.Context(), accountID, id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListLabels(w http.ResponseWriter, r *http.Request, accountID ulid.ULID) {
	labels, err := s.archive.ListLabels(r.Context(), accountID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]labelResponse, 0, len(labels))
	for _, l := range labels {
		out = append(out, newLabelResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateLabel(w http.ResponseWriter, r *http.Request, accountID ulid.ULID) {
	var req labelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	label, err := s.archive.CreateLabel(r.Context(), accountID, req.Name, req.Color)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newLabelResponse(label))
}

func (s *Server) handleAddFile(w http.ResponseWriter, r *http.Request, accountID ulid.ULID) {
	var req fileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	folderID, err := bodyID(req.FolderID, access.ResourceFolder)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	file, err := s.archive.AddFile(r.Context(), accountID, req.Name, req.Size, folderID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newFileResponse(file))
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request, accountID ulid.ULID) {
	id, err := pathID(r, "id", access.ResourceFile)
	if err == nil {
		err = s.archive.DeleteFile(r.Context(), accountID, id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearchFiles(w http.ResponseWriter, r *http.Request, accountID ulid.ULID) {
	files, err := s.archive.SearchFiles(r.Context(), accountID, r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newFileResponses(files))
}
