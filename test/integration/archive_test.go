// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/archiveplatform/archive/internal/archive"
	"github.com/archiveplatform/archive/pkg/errutil"
)

var _ = Describe("Archive", func() {
	var alice, bob ulid.ULID

	BeforeEach(func() {
		alice = ulid.MustParse(register("alice"))
		bob = ulid.MustParse(register("bob"))
	})

	It("removes a folder's subtree and contents with it", func() {
		parent, err := env.Archive.CreateFolder(env.ctx, alice, "Taxes", nil)
		Expect(err).NotTo(HaveOccurred())
		child, err := env.Archive.CreateFolder(env.ctx, alice, "2025", &parent.ID)
		Expect(err).NotTo(HaveOccurred())
		note, err := env.Archive.CreateNote(env.ctx, alice, "Receipts", "scan them", &child.ID)
		Expect(err).NotTo(HaveOccurred())
		file, err := env.Archive.AddFile(env.ctx, alice, "return.pdf", 1024, &child.ID)
		Expect(err).NotTo(HaveOccurred())

		Expect(env.Archive.DeleteFolder(env.ctx, alice, parent.ID)).To(Succeed())

		_, err = env.Archive.ListFolder(env.ctx, alice, &child.ID)
		Expect(errutil.Code(err)).To(Equal(archive.CodeResourceNotFound))
		Expect(errutil.Code(env.Archive.DeleteNote(env.ctx, alice, note.ID))).To(Equal(archive.CodeResourceNotFound))
		Expect(errutil.Code(env.Archive.DeleteFile(env.ctx, alice, file.ID))).To(Equal(archive.CodeResourceNotFound))
	})

	It("hides other accounts' resources behind not found", func() {
		folder, err := env.Archive.CreateFolder(env.ctx, alice, "Private", nil)
		Expect(err).NotTo(HaveOccurred())
		label, err := env.Archive.CreateLabel(env.ctx, alice, "secret", "#000000")
		Expect(err).NotTo(HaveOccurred())

		_, denied := env.Archive.ListFolder(env.ctx, bob, &folder.ID)
		missingID := ulid.Make()
		_, missing := env.Archive.ListFolder(env.ctx, bob, &missingID)
		Expect(errutil.Code(denied)).To(Equal(archive.CodeResourceNotFound))
		Expect(errutil.Code(missing)).To(Equal(archive.CodeResourceNotFound))

		bobFolder, err := env.Archive.CreateFolder(env.ctx, bob, "Mine", nil)
		Expect(err).NotTo(HaveOccurred())
		err = env.Archive.AttachLabel(env.ctx, bob, bobFolder.ID, label.ID)
		Expect(errutil.Code(err)).To(Equal(archive.CodeResourceNotFound))

		listing, err := env.Archive.ListFolder(env.ctx, alice, &folder.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(listing.Folder.Name).To(Equal("Private"))
	})

	It("attaches labels idempotently and lists them with child folders", func() {
		folder, err := env.Archive.CreateFolder(env.ctx, alice, "Work", nil)
		Expect(err).NotTo(HaveOccurred())
		label, err := env.Archive.CreateLabel(env.ctx, alice, "urgent", "#ff0000")
		Expect(err).NotTo(HaveOccurred())

		Expect(env.Archive.AttachLabel(env.ctx, alice, folder.ID, label.ID)).To(Succeed())
		Expect(env.Archive.AttachLabel(env.ctx, alice, folder.ID, label.ID)).To(Succeed())

		root, err := env.Archive.ListFolder(env.ctx, alice, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(root.Folders).To(HaveLen(1))
		Expect(root.Folders[0].Labels).To(HaveLen(1))
		Expect(root.Folders[0].Labels[0].Name).To(Equal("urgent"))

		Expect(env.Archive.DetachLabel(env.ctx, alice, folder.ID, label.ID)).To(Succeed())
		root, err = env.Archive.ListFolder(env.ctx, alice, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(root.Folders[0].Labels).To(BeEmpty())
	})

	It("treats search wildcards literally and scopes results to the owner", func() {
		_, err := env.Archive.AddFile(env.ctx, alice, "100%_done.txt", 10, nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = env.Archive.AddFile(env.ctx, alice, "1000 things.txt", 10, nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = env.Archive.AddFile(env.ctx, bob, "100 percent.txt", 10, nil)
		Expect(err).NotTo(HaveOccurred())

		found, err := env.Archive.SearchFiles(env.ctx, alice, "100")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(HaveLen(2))

		found, err = env.Archive.SearchFiles(env.ctx, alice, "%")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeEmpty(), "sanitized names never contain a percent sign")

		found, err = env.Archive.SearchFiles(env.ctx, alice, "0_d")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(HaveLen(1))
		Expect(found[0].OriginalName).To(Equal("100_done.txt"))
	})

	It("serves the archive over HTTP with a session cookie", func() {
		post := func(path string, body any, cookies ...*http.Cookie) *http.Response {
			raw, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			req, err := http.NewRequestWithContext(env.ctx, http.MethodPost, env.API.URL+path, bytes.NewReader(raw))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")
			for _, c := range cookies {
				req.AddCookie(c)
			}
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(resp.Body.Close)
			return resp
		}

		resp := post("/login", map[string]string{"username": "alice", "password": "Passw0rd1"})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		var session *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == "archive_session" {
				session = c
			}
		}
		Expect(session).NotTo(BeNil())
		Expect(session.HttpOnly).To(BeTrue())

		resp = post("/folders", map[string]any{"name": "From HTTP"}, session)
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		root, err := env.Archive.ListFolder(env.ctx, alice, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(root.Folders).To(HaveLen(1))
		Expect(root.Folders[0].Folder.Name).To(Equal("From HTTP"))
	})
})
