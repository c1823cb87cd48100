// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package archive

import (
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/archiveplatform/archive/internal/access"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("not found")

// Error codes returned by Service.
const (
	CodeResourceNotFound   = "RESOURCE_NOT_FOUND"
	CodeInvalidName        = "ARCHIVE_INVALID_NAME"
	CodeInvalidTitle       = "ARCHIVE_INVALID_TITLE"
	CodeContentTooLong     = "ARCHIVE_CONTENT_TOO_LONG"
	CodeInvalidColor       = "ARCHIVE_INVALID_COLOR"
	CodeInvalidFilename    = "ARCHIVE_INVALID_FILENAME"
	CodeFileTypeNotAllowed = "ARCHIVE_FILE_TYPE_NOT_ALLOWED"
	CodeFileTooLarge       = "ARCHIVE_FILE_TOO_LARGE"
)

// ValidationCodes lists the codes that report bad caller input.
var ValidationCodes = []string{
	CodeInvalidName,
	CodeInvalidTitle,
	CodeContentTooLong,
	CodeInvalidColor,
	CodeInvalidFilename,
	CodeFileTypeNotAllowed,
	CodeFileTooLarge,
}

// notFoundError is shared by denied and missing resources.
func notFoundError(resourceType access.ResourceType, id ulid.ULID) error {
	return oops.Code(CodeResourceNotFound).
		With("resource_type", string(resourceType)).
		With("resource_id", id.String()).
		Errorf("%s not found", resourceType)
}
