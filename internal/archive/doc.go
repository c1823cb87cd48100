// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

// Package archive holds the owner-scoped personal archive: folders, notes,
// labels and file metadata.
//
// Every Service method takes the authenticated account ID explicitly and
// checks ownership of each caller-supplied resource ID through an
// access.Authorizer before touching the store. A resource owned by someone
// else is reported exactly like a missing one (RESOURCE_NOT_FOUND).
//
// Deleting a folder removes its subfolders, files, notes and label
// attachments through foreign key cascades; only the root folder is checked.
package archive
