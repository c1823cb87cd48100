// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/archiveplatform/archive/internal/access"
	accesspg "github.com/archiveplatform/archive/internal/access/postgres"
	"github.com/archiveplatform/archive/internal/archive"
	archivepg "github.com/archiveplatform/archive/internal/archive/postgres"
	"github.com/archiveplatform/archive/internal/auth"
	authpg "github.com/archiveplatform/archive/internal/auth/postgres"
	authredis "github.com/archiveplatform/archive/internal/auth/redis"
	"github.com/archiveplatform/archive/internal/config"
	"github.com/archiveplatform/archive/internal/logging"
	"github.com/archiveplatform/archive/internal/observability"
	"github.com/archiveplatform/archive/internal/store"
	"github.com/archiveplatform/archive/internal/web"
	"github.com/archiveplatform/archive/pkg/errutil"
)

// shutdownTimeout bounds graceful shutdown of each server.
const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the JSON API server together with the metrics and health
listener and the expired session sweeper.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, nil)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// runServeWithDeps runs the server until SIGINT, SIGTERM, ctx cancellation
// or a server failure. If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.DatabaseFactory == nil {
		deps.DatabaseFactory = func(ctx context.Context, url string, logger *slog.Logger) (Database, error) {
			return store.Connect(ctx, url, store.ConnectOptions{Logger: logger})
		}
	}
	if deps.RedisFactory == nil {
		deps.RedisFactory = newRedisClient
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readiness observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, readiness, logger)
		}
	}
	if deps.ListenerFactory == nil {
		deps.ListenerFactory = net.Listen
	}

	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return oops.With("operation", "load configuration").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.SetDefault(logging.Options{
		Service: "archive",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	})
	if err != nil {
		return oops.With("operation", "set up logging").Wrap(err)
	}

	logger.Info("starting archive server",
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"session_backend", cfg.Session.Backend)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	db, err := deps.DatabaseFactory(ctx, cfg.Database.URL, logger)
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()
	logger.Info("connected to database")

	var (
		sessions auth.SessionRepository = authpg.NewSessionRepository(db)
		rdb      goredis.UniversalClient
	)
	if cfg.Session.Backend == config.BackendRedis {
		rdb, err = deps.RedisFactory(cfg.Redis.URL)
		if err != nil {
			return oops.With("operation", "connect to redis").Wrap(err)
		}
		defer func() {
			if closeErr := rdb.Close(); closeErr != nil {
				logger.Debug("error closing redis client", "error", closeErr)
			}
		}()
		sessions = authredis.NewSessionRepository(rdb, "")
	}

	readiness := func(ctx context.Context) error {
		if err := db.Ping(ctx); err != nil {
			return err
		}
		if rdb != nil {
			return rdb.Ping(ctx).Err()
		}
		return nil
	}

	// Metrics are collected even without a listener so the code paths stay the same.
	registry := prometheus.NewRegistry()
	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, readiness, logger)
		registry = obsServer.Registry()
	}

	handler, err := buildHandler(cfg, db, sessions, registry, logger)
	if err != nil {
		return err
	}

	sweeper, err := auth.NewSessionSweeper(sessions, cfg.Session.SweepInterval, logger)
	if err != nil {
		return err
	}
	sweeper.Start(ctx)
	defer sweeper.Stop()

	if obsServer != nil {
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability", logger)
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	listener, err := deps.ListenerFactory("tcp", cfg.HTTP.Addr)
	if err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}
	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
		close(errChan)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Archive server started")
	logger.Info("archive server ready", "http_addr", listener.Addr().String())

	var serveErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err, ok := <-errChan:
		if ok && err != nil {
			serveErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return serveErr
}

// buildHandler wires repositories, services and the API router.
func buildHandler(cfg *config.Config, db store.Pool, sessions auth.SessionRepository,
	registry prometheus.Registerer, logger *slog.Logger,
) (http.Handler, error) {
	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	issuer, err := auth.NewSessionIssuer(sessions, cfg.Session.Lifetime, nil)
	if err != nil {
		return nil, err
	}
	authSvc, err := auth.NewService(authpg.NewAccountRepository(db), hasher, issuer,
		auth.WithLogger(logger),
		auth.WithMetrics(auth.NewMetrics(registry)),
		auth.WithLockoutPolicy(auth.LockoutPolicy{
			Threshold: cfg.Auth.LockoutThreshold,
			Duration:  cfg.Auth.LockoutDuration,
		}))
	if err != nil {
		return nil, err
	}

	guard := access.NewGuard(accesspg.NewOwnerResolver(db),
		access.WithGuardLogger(logger),
		access.WithGuardMetrics(access.NewMetrics(registry)))
	archiveSvc, err := archive.NewService(archive.Repositories{
		Folders: archivepg.NewFolderRepository(db),
		Notes:   archivepg.NewNoteRepository(db),
		Labels:  archivepg.NewLabelRepository(db),
		Files:   archivepg.NewFileRepository(db),
	}, guard, archive.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	srv, err := web.NewServer(authSvc, archiveSvc,
		web.WithLogger(logger),
		web.WithMetrics(observability.NewHTTPMetrics(registry)),
		web.WithTrustedProxy(cfg.HTTP.TrustedProxy),
		web.WithCookie(web.CookieConfig{
			Secure: cfg.Session.CookieSecure,
			MaxAge: cfg.Session.Lifetime,
		}))
	if err != nil {
		return nil, err
	}
	return srv.Handler(), nil
}

func newRedisClient(url string) (goredis.UniversalClient, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, oops.Code("REDIS_URL_INVALID").Wrap(err)
	}
	return goredis.NewClient(opts), nil
}

// monitorServerErrors cancels ctx when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			errutil.LogError(logger.With("server", serverName), "server error, triggering shutdown", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
