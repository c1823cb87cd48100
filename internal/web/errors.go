// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package web

import (
	"net/http"

	"github.com/archiveplatform/archive/internal/archive"
	"github.com/archiveplatform/archive/internal/auth"
	"github.com/archiveplatform/archive/pkg/errutil"
)

// Outward codes that are not produced by a service.
const (
	CodeInternal        = "INTERNAL"
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnauthenticated = "UNAUTHENTICATED"
)

// codeStatus maps service error codes to HTTP statuses. Codes not listed
// here are internal failures and their detail is not disclosed.
var codeStatus = map[string]int{
	auth.CodeInvalidUsername:    http.StatusBadRequest,
	auth.CodeInvalidEmail:       http.StatusBadRequest,
	auth.CodeWeakPassword:       http.StatusBadRequest,
	auth.CodeMissingCredentials: http.StatusBadRequest,
	auth.CodeDuplicateAccount:   http.StatusConflict,
	auth.CodeInvalidCredentials: http.StatusUnauthorized,
	auth.CodeAccountLocked:      http.StatusLocked,
	auth.CodeSessionInvalid:     http.StatusUnauthorized,
	auth.CodeSessionExpired:     http.StatusUnauthorized,
	auth.CodeAccountNotFound:    http.StatusUnauthorized,

	archive.CodeResourceNotFound:   http.StatusNotFound,
	archive.CodeInvalidName:        http.StatusBadRequest,
	archive.CodeInvalidTitle:       http.StatusBadRequest,
	archive.CodeContentTooLong:     http.StatusBadRequest,
	archive.CodeInvalidColor:       http.StatusBadRequest,
	archive.CodeInvalidFilename:    http.StatusBadRequest,
	archive.CodeFileTypeNotAllowed: http.StatusUnsupportedMediaType,
	archive.CodeFileTooLarge:       http.StatusRequestEntityTooLarge,

	CodeBadRequest:      http.StatusBadRequest,
	CodeUnauthenticated: http.StatusUnauthorized,
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError renders err as a JSON error. Unmapped errors are logged and
// reported as a generic internal failure.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errutil.Code(err)
	status, ok := codeStatus[code]
	if !ok {
		errutil.LogErrorContext(r.Context(), s.logger, "request failed", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{
			Code:    CodeInternal,
			Message: "internal error",
		}})
		return
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: err.Error()}})
}

func writeErrorCode(w http.ResponseWriter, code, message string) {
	status, ok := codeStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}
