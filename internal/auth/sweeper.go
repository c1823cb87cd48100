// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/archiveplatform/archive/pkg/errutil"
)

// DefaultSweepInterval is how often expired sessions are purged.
const DefaultSweepInterval = 15 * time.Minute

// SessionSweeper periodically deletes expired session rows.
// Validity is always decided by SessionIssuer.Validate; the sweeper only reclaims storage.
type SessionSweeper struct {
	sessions SessionRepository
	interval time.Duration
	logger   *slog.Logger
	clock    func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSessionSweeper creates a sweeper. A nil logger uses slog.Default().
func NewSessionSweeper(sessions SessionRepository, interval time.Duration, logger *slog.Logger) (*SessionSweeper, error) {
	if sessions == nil {
		return nil, oops.Code("SWEEPER_INVALID").Errorf("sessions repository is required")
	}
	if interval <= 0 {
		return nil, oops.Code("SWEEPER_INVALID").
			With("interval", interval.String()).
			Errorf("sweep interval must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionSweeper{
		sessions: sessions,
		interval: interval,
		logger:   logger,
		clock:    time.Now,
	}, nil
}

// RunOnce deletes sessions that have expired and returns the count.
func (w *SessionSweeper) RunOnce(ctx context.Context) (int64, error) {
	n, err := w.sessions.DeleteExpired(ctx, w.clock())
	if err != nil {
		return 0, oops.Code("SESSION_SWEEP_FAILED").Wrap(err)
	}
	if n > 0 {
		w.logger.Info("purged expired sessions", "count", n)
	}
	return n, nil
}

// Start begins periodic sweeping until ctx is cancelled or Stop is called.
func (w *SessionSweeper) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop stops the sweeper and waits for it to exit.
func (w *SessionSweeper) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *SessionSweeper) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				errutil.LogErrorContext(ctx, w.logger, "session sweep failed", err)
			}
		}
	}
}
