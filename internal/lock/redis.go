// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package lock

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

// DefaultTTL bounds how long a crashed importer keeps its lock.
const DefaultTTL = 10 * time.Minute

// Release and refresh only act on a key that still carries our token.
var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// Connect creates a Redis client and verifies the connection with a ping.
func Connect(addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, wkerr.Errorf(wkerr.CodeLockBackendFailure, "redis ping: %w", err)
	}

	slog.Info("redis connected", "addr", addr)
	return client, nil
}

// Redis is a Locker shared by every process talking to the same server.
// Leases expire after the TTL unless refreshed.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis returns a Locker backed by client.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, logger: slog.Default()}
}

// Ping checks that the Redis server answers.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return wkerr.Errorf(wkerr.CodeLockBackendFailure, "pinging redis: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Acquire(ctx context.Context, key string) (Lease, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, wkerr.Errorf(wkerr.CodeLockBackendFailure, "acquiring %s: %w", key, err)
	}
	if !ok {
		return nil, conflict(key)
	}
	r.logger.Debug("lock acquired", "key", key, "ttl", r.ttl)
	return &redisLease{owner: r, key: key, token: token}, nil
}

type redisLease struct {
	owner *Redis
	key   string
	token string
}

func (l *redisLease) Key() string { return l.key }

func (l *redisLease) Refresh(ctx context.Context) error {
	n, err := refreshScript.Run(ctx, l.owner.client, []string{l.key}, l.token, l.owner.ttl.Milliseconds()).Int()
	if err != nil {
		return wkerr.Errorf(wkerr.CodeLockBackendFailure, "refreshing %s: %w", l.key, err)
	}
	if n == 0 {
		return wkerr.New(wkerr.CodeLockAcquireConflict, "lease lost", wkerr.Field("key", l.key))
	}
	return nil
}

func (l *redisLease) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.owner.client, []string{l.key}, l.token).Int()
	if err != nil {
		return wkerr.Errorf(wkerr.CodeLockBackendFailure, "releasing %s: %w", l.key, err)
	}
	if n == 0 {
		l.owner.logger.Warn("lock expired before release", "key", l.key)
	}
	return nil
}
