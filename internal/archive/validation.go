// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package archive

import (
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/samber/oops"
	"golang.org/x/text/unicode/norm"
)

// Field limits.
const (
	MaxFolderNameLength  = 100
	MaxNoteTitleLength   = 200
	MaxNoteContentLength = 10000
	MaxLabelNameLength   = 50
	MaxFilenameLength    = 100
	MaxSearchQueryLength = 100

	// truncatedStemLength is the stem kept when a filename is too long.
	truncatedStemLength = 95

	// MaxFileSize is the largest accepted upload, 16 MiB.
	MaxFileSize int64 = 16 << 20
)

// AllowedExtensions are the accepted file extensions, lowercase and without dot.
var AllowedExtensions = map[string]bool{
	"txt": true, "pdf": true, "png": true, "jpg": true,
	"jpeg": true, "gif": true, "doc": true, "docx": true,
}

var (
	colorRegex          = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
)

func validateLength(value, code, field string, maxLen int) error {
	n := utf8.RuneCountInString(value)
	if n < 1 || n > maxLen {
		return oops.Code(code).
			With("max", maxLen).
			Errorf("%s must be between 1 and %d characters", field, maxLen)
	}
	return nil
}

// ValidateFolderName checks a trimmed folder name.
func ValidateFolderName(name string) error {
	return validateLength(name, CodeInvalidName, "folder name", MaxFolderNameLength)
}

// ValidateNoteTitle checks a trimmed note title.
func ValidateNoteTitle(title string) error {
	return validateLength(title, CodeInvalidTitle, "title", MaxNoteTitleLength)
}

// ValidateNoteContent checks note content length. Empty content is allowed.
func ValidateNoteContent(content string) error {
	if utf8.RuneCountInString(content) > MaxNoteContentLength {
		return oops.Code(CodeContentTooLong).
			With("max", MaxNoteContentLength).
			Errorf("content cannot exceed %d characters", MaxNoteContentLength)
	}
	return nil
}

// ValidateLabelName checks a trimmed label name.
func ValidateLabelName(name string) error {
	return validateLength(name, CodeInvalidName, "label name", MaxLabelNameLength)
}

// ValidateColor checks a #RRGGBB color.
func ValidateColor(color string) error {
	if !colorRegex.MatchString(color) {
		return oops.Code(CodeInvalidColor).
			With("color", color).
			Errorf("color must be a hex code such as #FF5733")
	}
	return nil
}

// AllowedFile reports whether filename has an accepted extension.
func AllowedFile(filename string) bool {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return false
	}
	return AllowedExtensions[strings.ToLower(filename[i+1:])]
}

// SanitizeFilename reduces a client supplied name to a safe single path
// component of ASCII letters, digits, '_', '-' and '.'. Names longer than
// MaxFilenameLength keep the first 95 bytes of the stem plus the extension.
// The result may be empty when nothing usable remains.
func SanitizeFilename(filename string) string {
	// Decompose accents so "é" keeps its base letter.
	name := norm.NFKD.String(filename)
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.Join(strings.Fields(name), "_"))

	var b strings.Builder
	for _, r := range name {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	name = unsafeFilenameChars.ReplaceAllString(b.String(), "")
	name = strings.Trim(name, "._")

	if len(name) > MaxFilenameLength {
		ext := path.Ext(name)
		name = name[:truncatedStemLength] + ext
	}
	return name
}
