// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

// Package redis implements auth.SessionRepository on Redis.
package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/archiveplatform/archive/internal/auth"
)

// DefaultKeyPrefix namespaces every key written by SessionRepository.
const DefaultKeyPrefix = "archive"

// Session hash fields.
const (
	fieldID        = "id"
	fieldAccountID = "account_id"
	fieldUserAgent = "user_agent"
	fieldIPAddress = "ip_address"
	fieldIssuedAt  = "issued_at"
	fieldExpiresAt = "expires_at"
)

// SessionRepository stores each session as a hash keyed by its token hash.
// Keys carry a Redis expiry at the session's ExpiresAt, and a sorted set
// indexes token hashes by expiry so DeleteExpired can report what it removed.
type SessionRepository struct {
	client goredis.UniversalClient
	prefix string
}

// NewSessionRepository creates a SessionRepository. An empty prefix uses DefaultKeyPrefix.
func NewSessionRepository(client goredis.UniversalClient, prefix string) *SessionRepository {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SessionRepository{client: client, prefix: prefix}
}

func (r *SessionRepository) sessionKey(tokenHash string) string {
	return r.prefix + ":session:" + tokenHash
}

func (r *SessionRepository) expiryKey() string {
	return r.prefix + ":sessions:by_expiry"
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	key := r.sessionKey(session.TokenHash)
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			fieldID:        session.ID.String(),
			fieldAccountID: session.AccountID.String(),
			fieldUserAgent: session.UserAgent,
			fieldIPAddress: session.IPAddress,
			fieldIssuedAt:  session.IssuedAt.UnixMilli(),
			fieldExpiresAt: session.ExpiresAt.UnixMilli(),
		})
		pipe.PExpireAt(ctx, key, session.ExpiresAt)
		pipe.ZAdd(ctx, r.expiryKey(), goredis.Z{
			Score:  float64(session.ExpiresAt.UnixMilli()),
			Member: session.TokenHash,
		})
		return nil
	})
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "store session hash").
			With("account_id", session.AccountID.String()).
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	fields, err := r.client.HGetAll(ctx, r.sessionKey(tokenHash)).Result()
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").
			With("operation", "read session hash").
			Wrap(err)
	}
	if len(fields) == 0 {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}

	session, err := decodeSession(tokenHash, fields)
	if err != nil {
		return nil, oops.Code("SESSION_CORRUPT").With("operation", "decode session hash").Wrap(err)
	}
	return session, nil
}

// DeleteByTokenHash removes a session. Returns auth.ErrNotFound if none existed.
func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	var deleted *goredis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		deleted = pipe.Del(ctx, r.sessionKey(tokenHash))
		pipe.ZRem(ctx, r.expiryKey(), tokenHash)
		return nil
	})
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").With("operation", "delete session hash").Wrap(err)
	}
	if deleted.Val() == 0 {
		return oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes sessions expiring at or before the given time and
// clears their expiry index entries. Hashes Redis already evicted by TTL are
// not counted.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	limit := strconv.FormatInt(before.UnixMilli(), 10)
	hashes, err := r.client.ZRangeByScore(ctx, r.expiryKey(), &goredis.ZRangeBy{Min: "-inf", Max: limit}).Result()
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").With("operation", "scan expiry index").Wrap(err)
	}
	if len(hashes) == 0 {
		return 0, nil
	}

	keys := make([]string, len(hashes))
	members := make([]any, len(hashes))
	for i, h := range hashes {
		keys[i] = r.sessionKey(h)
		members[i] = h
	}

	var deleted *goredis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		deleted = pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, r.expiryKey(), members...)
		return nil
	})
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").With("operation", "delete expired sessions").Wrap(err)
	}
	return deleted.Val(), nil
}

func decodeSession(tokenHash string, fields map[string]string) (*auth.Session, error) {
	id, err := ulid.Parse(fields[fieldID])
	if err != nil {
		return nil, err
	}
	accountID, err := ulid.Parse(fields[fieldAccountID])
	if err != nil {
		return nil, err
	}
	issued, err := parseMillis(fields[fieldIssuedAt])
	if err != nil {
		return nil, err
	}
	expires, err := parseMillis(fields[fieldExpiresAt])
	if err != nil {
		return nil, err
	}
	return &auth.Session{
		ID:        id,
		AccountID: accountID,
		TokenHash: tokenHash,
		UserAgent: fields[fieldUserAgent],
		IPAddress: fields[fieldIPAddress],
		IssuedAt:  issued,
		ExpiresAt: expires,
	}, nil
}

func parseMillis(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

var _ auth.SessionRepository = (*SessionRepository)(nil)
