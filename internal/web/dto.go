// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package web

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/archiveplatform/archive/internal/archive"
	"github.com/archiveplatform/archive/internal/auth"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID string `json:"id"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccountID string    `json:"account_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type accountResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func newAccountResponse(a *auth.Account) accountResponse {
	return accountResponse{
		ID:        a.ID.String(),
		Username:  a.Username,
		Email:     a.Email,
		LastLogin: a.LastLogin,
		CreatedAt: a.CreatedAt,
	}
}

type createFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

type noteRequest struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	FolderID *string `json:"folder_id"`
}

type labelRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type fileRequest struct {
	Name     string  `json:"name"`
	Size     int64   `json:"size"`
	FolderID *string `json:"folder_id"`
}

type folderResponse struct {
	ID        string          `json:"id"`
	ParentID  *string         `json:"parent_id"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"created_at"`
	Labels    []labelResponse `json:"labels,omitempty"`
}

type noteResponse struct {
	ID        string    `json:"id"`
	FolderID  *string   `json:"folder_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type labelResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type fileResponse struct {
	ID         string    `json:"id"`
	FolderID   *string   `json:"folder_id"`
	Name       string    `json:"name"`
	StoredName string    `json:"stored_name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type listingResponse struct {
	Folder  *folderResponse  `json:"folder"`
	Folders []folderResponse `json:"folders"`
	Files   []fileResponse   `json:"files"`
	Notes   []noteResponse   `json:"notes"`
}

func optionalID(id *ulid.ULID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func newFolderResponse(f *archive.Folder, labels []*archive.Label) folderResponse {
	return folderResponse{
		ID:        f.ID.String(),
		ParentID:  optionalID(f.ParentID),
		Name:      f.Name,
		CreatedAt: f.CreatedAt,
		Labels:    newLabelResponses(labels),
	}
}

func newNoteResponse(n *archive.Note) noteResponse {
	return noteResponse{
		ID:        n.ID.String(),
		FolderID:  optionalID(n.FolderID),
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func newLabelResponse(l *archive.Label) labelResponse {
	return labelResponse{ID: l.ID.String(), Name: l.Name, Color: l.Color}
}

func newLabelResponses(labels []*archive.Label) []labelResponse {
	if len(labels) == 0 {
		return nil
	}
	out := make([]labelResponse, 0, len(labels))
	for _, l := range labels {
		out = append(out, newLabelResponse(l))
	}
	return out
}

func newFileResponse(f *archive.File) fileResponse {
	return fileResponse{
		ID:         f.ID.String(),
		FolderID:   optionalID(f.FolderID),
		Name:       f.OriginalName,
		StoredName: f.StoredName,
		Size:       f.SizeBytes,
		UploadedAt: f.UploadedAt,
	}
}

func newFileResponses(files []*archive.File) []fileResponse {
	out := make([]fileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, newFileResponse(f))
	}
	return out
}

func newListingResponse(l *archive.Listing) listingResponse {
	resp := listingResponse{
		Folders: make([]folderResponse, 0, len(l.Folders)),
		Files:   newFileResponses(l.Files),
		Notes:   make([]noteResponse, 0, len(l.Notes)),
	}
	if l.Folder != nil {
		f := newFolderResponse(l.Folder, nil)
		resp.Folder = &f
	}
	for _, e := range l.Folders {
		resp.Folders = append(resp.Folders, newFolderResponse(e.Folder, e.Labels))
	}
	for _, n := range l.Notes {
		resp.Notes = append(resp.Notes, newNoteResponse(n))
	}
	return resp
}
