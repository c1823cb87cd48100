// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package main

import (
	"context"
	"log/slog"
	"net"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/archiveplatform/archive/internal/observability"
	"github.com/archiveplatform/archive/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// DatabaseFactory opens the PostgreSQL pool.
	// Default: store.Connect
	DatabaseFactory func(ctx context.Context, url string, logger *slog.Logger) (Database, error)

	// RedisFactory creates the client for the redis session backend.
	// Default: goredis.ParseURL + goredis.NewClient
	RedisFactory func(url string) (goredis.UniversalClient, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readiness observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// ListenerFactory creates the API listener.
	// Default: net.Listen
	ListenerFactory func(network, address string) (net.Listener, error)
}

// Database is the pool used by serve: the repository surface plus lifecycle.
type Database interface {
	store.Pool
	Ping(ctx context.Context) error
	Close()
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Registry() *prometheus.Registry
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// MigrateDeps contains injectable dependencies for the migrate commands.
type MigrateDeps struct {
	// MigratorFactory creates a migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (Migrator, error)
}

// Migrator interface wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Status() (*store.Status, error)
	Close() error
}

var (
	_ ObservabilityServer = (*observability.Server)(nil)
	_ Migrator            = (*store.Migrator)(nil)
)
