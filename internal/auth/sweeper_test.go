// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/archiveplatform/archive/internal/auth"
	"github.com/archiveplatform/archive/internal/auth/authtest"
	"github.com/archiveplatform/archive/internal/auth/mocks"
	"github.com/archiveplatform/archive/pkg/errutil"
)

func TestNewSessionSweeper(t *testing.T) {
	_, err := auth.NewSessionSweeper(nil, time.Minute, nil)
	errutil.AssertErrorCode(t, err, "SWEEPER_INVALID")

	_, err = auth.NewSessionSweeper(mocks.NewMockSessionRepository(t), 0, nil)
	errutil.AssertErrorCode(t, err, "SWEEPER_INVALID")
}

func TestSessionSweeper_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("returns purged count", func(t *testing.T) {
		repo := mocks.NewMockSessionRepository(t)
		repo.On("DeleteExpired", ctx, mock.AnythingOfType("time.Time")).Return(int64(3), nil)

		sweeper, err := auth.NewSessionSweeper(repo, time.Minute, nil)
		require.NoError(t, err)

		n, err := sweeper.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("wraps store failure", func(t *testing.T) {
		repo := mocks.NewMockSessionRepository(t)
		repo.On("DeleteExpired", ctx, mock.Anything).Return(int64(0), errors.New("locked table"))

		sweeper, err := auth.NewSessionSweeper(repo, time.Minute, nil)
		require.NoError(t, err)

		_, err = sweeper.RunOnce(ctx)
		errutil.AssertErrorCode(t, err, "SESSION_SWEEP_FAILED")
	})
}

func TestSessionSweeper_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	sessions := authtest.NewSessions()
	ctx := context.Background()
	expired := &auth.Session{TokenHash: "expired", ExpiresAt: time.Now().Add(-time.Minute)}
	live := &auth.Session{TokenHash: "live", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, sessions.Create(ctx, expired))
	require.NoError(t, sessions.Create(ctx, live))

	sweeper, err := auth.NewSessionSweeper(sessions, 10*time.Millisecond, nil)
	require.NoError(t, err)

	sweeper.Start(ctx)
	assert.Eventually(t, func() bool { return sessions.Count() == 1 }, time.Second, 5*time.Millisecond)
	sweeper.Stop()

	_, err = sessions.GetByTokenHash(ctx, "live")
	assert.NoError(t, err)
}

func TestSessionSweeper_StopWithoutStart(t *testing.T) {
	sweeper, err := auth.NewSessionSweeper(authtest.NewSessions(), time.Minute, nil)
	require.NoError(t, err)
	sweeper.Stop()
}
