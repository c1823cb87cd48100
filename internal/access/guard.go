// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package access

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/archiveplatform/archive/pkg/errutil"
)

// ErrNotFound is returned by an OwnerResolver when the resource does not exist.
var ErrNotFound = errors.New("resource not found")

// OwnerResolver looks up the owning account of a resource.
type OwnerResolver interface {
	// OwnerOf returns the owner of the resource, or an error wrapping ErrNotFound.
	OwnerOf(ctx context.Context, resourceType ResourceType, resourceID ulid.ULID) (ulid.ULID, error)
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithGuardLogger sets the logger. Defaults to slog.Default().
func WithGuardLogger(logger *slog.Logger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithGuardMetrics enables denial counting.
func WithGuardMetrics(m *Metrics) GuardOption {
	return func(g *Guard) {
		g.metrics = m
	}
}

// Guard is the ownership Authorizer.
type Guard struct {
	owners  OwnerResolver
	logger  *slog.Logger
	metrics *Metrics
}

// NewGuard creates a Guard backed by owners.
func NewGuard(owners OwnerResolver, opts ...GuardOption) *Guard {
	g := &Guard{owners: owners, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize implements Authorizer. It never returns an error: anything other
// than a confirmed owner match is a denial.
func (g *Guard) Authorize(ctx context.Context, accountID ulid.ULID, resourceType ResourceType, resourceID ulid.ULID) bool {
	if !resourceType.Valid() {
		g.deny(ctx, resourceType, "unknown resource type", accountID, resourceID)
		return false
	}

	owner, err := g.owners.OwnerOf(ctx, resourceType, resourceID)
	switch {
	case errors.Is(err, ErrNotFound):
		g.deny(ctx, resourceType, "not found", accountID, resourceID)
		return false
	case err != nil:
		errutil.LogErrorContext(ctx, g.logger, "ownership lookup failed", err)
		g.deny(ctx, resourceType, "lookup failed", accountID, resourceID)
		return false
	case owner != accountID:
		g.deny(ctx, resourceType, "not owner", accountID, resourceID)
		return false
	}
	return true
}

func (g *Guard) deny(ctx context.Context, resourceType ResourceType, reason string, accountID, resourceID ulid.ULID) {
	g.metrics.recordDenial(resourceType)
	g.logger.DebugContext(ctx, "access denied",
		"account_id", accountID.String(),
		"resource_type", string(resourceType),
		"resource_id", resourceID.String(),
		"reason", reason)
}

var _ Authorizer = (*Guard)(nil)
