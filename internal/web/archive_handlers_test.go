// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package web_test

import (
	"net/http"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archiveplatform/archive/internal/archive"
)

func TestFolderLifecycle(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)
	c.signup("alice")

	rec := c.do(http.MethodPost, "/folders", map[string]any{"name": "  Taxes  "})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	parent := decode[map[string]any](t, rec)
	assert.Equal(t, "Taxes", parent["name"])
	assert.Nil(t, parent["parent_id"])
	parentID := parent["id"].(string)

	rec = c.do(http.MethodPost, "/folders", map[string]any{"name": "2025", "parent_id": parentID})
	require.Equal(t, http.StatusCreated, rec.Code)
	childID := decode[map[string]any](t, rec)["id"].(string)

	rec = c.do(http.MethodPost, "/labels", map[string]any{"name": "urgent", "color": "#ff0000"})
	require.Equal(t, http.StatusCreated, rec.Code)
	labelID := decode[map[string]any](t, rec)["id"].(string)

	rec = c.do(http.MethodPost, "/folders/"+childID+"/labels/"+labelID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.do(http.MethodGet, "/folders/"+parentID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listing := decode[struct {
		Folder  map[string]any `json:"folder"`
		Folders []struct {
			ID     string `json:"id"`
			Labels []struct {
				Name string `json:"name"`
			} `json:"labels"`
		} `json:"folders"`
		Files []any `json:"files"`
		Notes []any `json:"notes"`
	}](t, rec)
	assert.Equal(t, parentID, listing.Folder["id"])
	require.Len(t, listing.Folders, 1)
	assert.Equal(t, childID, listing.Folders[0].ID)
	require.Len(t, listing.Folders[0].Labels, 1)
	assert.Equal(t, "urgent", listing.Folders[0].Labels[0].Name)
	assert.NotNil(t, listing.Files)
	assert.NotNil(t, listing.Notes)

	rec = c.do(http.MethodDelete, "/folders/"+childID+"/labels/"+labelID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.do(http.MethodDelete, "/folders/"+parentID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.do(http.MethodGet, "/folders/"+childID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "children are removed with their parent")
}

func TestFolder_ValidationErrors(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)
	c.signup("alice")

	rec := c.do(http.MethodPost, "/folders", map[string]any{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, archive.CodeInvalidName, errorCode(t, rec))

	rec = c.do(http.MethodPost, "/folders", map[string]any{"name": "x", "parent_id": "not-a-ulid"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotes(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)
	c.signup("alice")

	rec := c.do(http.MethodPost, "/notes", map[string]any{"title": "Groceries", "content": "milk"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	noteID := decode[map[string]any](t, rec)["id"].(string)

	rec = c.do(http.MethodPut, "/notes/"+noteID, map[string]any{"title": "Groceries", "content": "milk, eggs"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "milk, eggs", decode[map[string]any](t, rec)["content"])

	rec = c.do(http.MethodPut, "/notes/"+noteID, map[string]any{"title": "", "content": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, archive.CodeInvalidTitle, errorCode(t, rec))

	rec = c.do(http.MethodGet, "/folders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	root := decode[struct {
		Folder any   `json:"folder"`
		Notes  []any `json:"notes"`
	}](t, rec)
	assert.Nil(t, root.Folder)
	assert.Len(t, root.Notes, 1)

	rec = c.do(http.MethodDelete, "/notes/"+noteID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = c.do(http.MethodDelete, "/notes/"+noteID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFiles(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)
	c.signup("alice")

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"allowed", map[string]any{"name": "Tax Return 2025.pdf", "size": 2048}, http.StatusCreated, ""},
		{"disallowed type", map[string]any{"name": "setup.exe", "size": 10}, http.StatusUnsupportedMediaType, archive.CodeFileTypeNotAllowed},
		{"too large", map[string]any{"name": "scan.png", "size": archive.MaxFileSize + 1}, http.StatusRequestEntityTooLarge, archive.CodeFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.do(http.MethodPost, "/files", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, rec))
			}
		})
	}

	rec := c.do(http.MethodGet, "/files?q=return", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[[]map[string]any](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, "Tax_Return_2025.pdf", found[0]["name"])

	rec = c.do(http.MethodGet, "/files?q=", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = c.do(http.MethodDelete, "/files/"+found[0]["id"].(string), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCrossAccountAccessLooksLikeMissing(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.client(t)
	alice.signup("alice")
	bob := ts.client(t)
	bob.signup("bob")

	rec := alice.do(http.MethodPost, "/folders", map[string]any{"name": "Private"})
	require.Equal(t, http.StatusCreated, rec.Code)
	folderID := decode[map[string]any](t, rec)["id"].(string)

	denied := bob.do(http.MethodGet, "/folders/"+folderID, nil)
	missing := bob.do(http.MethodGet, "/folders/"+ulid.Make().String(), nil)
	assert.Equal(t, http.StatusNotFound, denied.Code)
	assert.Equal(t, missing.Code, denied.Code)
	assert.Equal(t, errorCode(t, missing), errorCode(t, denied))

	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodDelete, "/folders/"+folderID, nil).Code)
	assert.Equal(t, http.StatusNotFound,
		bob.do(http.MethodPost, "/notes", map[string]any{"title": "t", "content": "", "folder_id": folderID}).Code)

	rec = alice.do(http.MethodGet, "/folders/"+folderID, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "owner still sees the folder")
}

func TestMalformedPathID(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)
	c.signup("alice")

	rec := c.do(http.MethodDelete, "/files/not-a-ulid", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, archive.CodeResourceNotFound, errorCode(t, rec))
}

func TestRequestMetricsUseRouteTemplates(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)
	c.signup("alice")

	c.do(http.MethodDelete, "/files/"+ulid.Make().String(), nil)
	c.do(http.MethodDelete, "/files/"+ulid.Make().String(), nil)

	assert.InDelta(t, 2, testutil.ToFloat64(
		ts.metrics.RequestsTotal.WithLabelValues(http.MethodDelete, "/files/{id}", "404")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(
		ts.metrics.RequestsTotal.WithLabelValues(http.MethodPost, "/register", "201")), 0)
}
