// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

// Package web exposes authentication and the archive as a JSON API.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/samber/oops"

	"github.com/archiveplatform/archive/internal/archive"
	"github.com/archiveplatform/archive/internal/auth"
	"github.com/archiveplatform/archive/internal/observability"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables request metrics.
func WithMetrics(m *observability.HTTPMetrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithCookie overrides the session cookie settings.
func WithCookie(c CookieConfig) Option {
	return func(s *Server) {
		s.cookie = c
	}
}

// WithTrustedProxy makes the server take the client address from
// X-Forwarded-For and X-Real-IP. Enable it only behind a proxy that sets them.
func WithTrustedProxy(trusted bool) Option {
	return func(s *Server) {
		s.trustProxy = trusted
	}
}

// Server routes API requests to the auth and archive services.
type Server struct {
	auth     *auth.Service
	sessions SessionValidator
	archive  *archive.Service
	cookie   CookieConfig
	logger   *slog.Logger
	metrics  *observability.HTTPMetrics

	trustProxy bool
}

// NewServer creates a new Server.
func NewServer(authSvc *auth.Service, archiveSvc *archive.Service, opts ...Option) (*Server, error) {
	if authSvc == nil {
		return nil, oops.Code("WEB_SERVER_INVALID").Errorf("auth service is required")
	}
	if archiveSvc == nil {
		return nil, oops.Code("WEB_SERVER_INVALID").Errorf("archive service is required")
	}
	s := &Server{
		auth:     authSvc,
		sessions: authSvc,
		archive:  archiveSvc,
		cookie:   CookieConfig{Secure: true, MaxAge: auth.DefaultSessionLifetime},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the API handler with panic recovery. Proxy headers are
// honoured only when WithTrustedProxy is set.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.instrument)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorCode(w, archive.CodeResourceNotFound, "not found")
	})

	r.Handle("/register", jsonBody(http.HandlerFunc(s.handleRegister))).Methods(http.MethodPost)
	r.Handle("/login", jsonBody(http.HandlerFunc(s.handleLogin))).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	r.Handle("/me", s.RequireSession(s.handleMe)).Methods(http.MethodGet)

	r.Handle("/folders", s.RequireSession(s.handleListFolder)).Methods(http.MethodGet)
	r.Handle("/folders", jsonBody(s.RequireSession(s.handleCreateFolder))).Methods(http.MethodPost)
	r.Handle("/folders/{id}", s.RequireSession(s.handleListFolder)).Methods(http.MethodGet)
	r.Handle("/folders/{id}", s.RequireSession(s.handleDeleteFolder)).Methods(http.MethodDelete)
	r.Handle("/folders/{id}/labels/{labelID}", s.RequireSession(s.handleAttachLabel)).Methods(http.MethodPost)
	r.Handle("/folders/{id}/labels/{labelID}", s.RequireSession(s.handleDetachLabel)).Methods(http.MethodDelete)

	r.Handle("/notes", jsonBody(s.RequireSession(s.handleCreateNote))).Methods(http.MethodPost)
	r.Handle("/notes/{id}", jsonBody(s.RequireSession(s.handleEditNote))).Methods(http.MethodPut)
	r.Handle("/notes/{id}", s.RequireSession(s.handleDeleteNote)).Methods(http.MethodDelete)

	r.Handle("/labels", s.RequireSession(s.handleListLabels)).Methods(http.MethodGet)
	r.Handle("/labels", jsonBody(s.RequireSession(s.handleCreateLabel))).Methods(http.MethodPost)

	r.Handle("/files", s.RequireSession(s.handleSearchFiles)).Methods(http.MethodGet)
	r.Handle("/files", jsonBody(s.RequireSession(s.handleAddFile))).Methods(http.MethodPost)
	r.Handle("/files/{id}", s.RequireSession(s.handleDeleteFile)).Methods(http.MethodDelete)

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(false),
	)
	h := recovery(r)
	if s.trustProxy {
		h = handlers.ProxyHeaders(h)
	}
	return h
}

// jsonBody rejects bodies that are not application/json with 415.
func jsonBody(h http.Handler) http.Handler {
	return handlers.ContentTypeHandler(h, "application/json")
}

type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.logger.Error("panic in http handler", "panic", v)
}
