// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"

	"github.com/archiveplatform/archive/internal/auth"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "archive_session"

// AuthedHandler handles a request made with a valid session. The account ID
// is passed explicitly; handlers never read identity from anywhere else.
type AuthedHandler func(w http.ResponseWriter, r *http.Request, accountID ulid.ULID)

// SessionValidator resolves a session token.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*auth.Session, error)
}

// sessionToken returns the token from the session cookie, falling back to an
// Authorization bearer header.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireSession rejects requests without a valid session with 401.
func (s *Server) RequireSession(next AuthedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			writeErrorCode(w, CodeUnauthenticated, "authentication required")
			return
		}
		session, err := s.sessions.ValidateSession(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next(w, r, session.AccountID)
	})
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// instrument logs each request and records it in the HTTP metrics under
// its route template, so IDs never become label values.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		s.metrics.Observe(r.Method, route, strconv.Itoa(rec.status), elapsed)
		s.logger.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
			"remote_addr", r.RemoteAddr)
	})
}
