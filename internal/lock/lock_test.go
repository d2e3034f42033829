// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package lock_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikicat/wikicat/internal/lock"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

func TestImportKey(t *testing.T) {
	assert.Equal(t, "wikicat:import:category_categories:4", lock.ImportKey("category_categories", 4))
}

func TestLocal_ExclusiveUntilReleased(t *testing.T) {
	ctx := context.Background()
	l := lock.NewLocal()

	lease, err := l.Acquire(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "k", lease.Key())

	_, err = l.Acquire(ctx, "k")
	require.Error(t, err)
	assert.True(t, wkerr.IsConflict(err))

	other, err := l.Acquire(ctx, "other")
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lease.Refresh(ctx))
	require.NoError(t, lease.Release(ctx))

	again, err := l.Acquire(ctx, "k")
	require.NoError(t, err)

	// A stale lease must not release the new holder.
	require.NoError(t, lease.Release(ctx))
	_, err = l.Acquire(ctx, "k")
	assert.True(t, wkerr.IsConflict(err))
	require.NoError(t, again.Release(ctx))
}

func redisAddr() string {
	if addr := os.Getenv("WIKICAT_TEST_REDIS_ADDR"); addr != "" {
		return addr
	}
	return "127.0.0.1:6379"
}

func TestRedis_ExclusiveUntilReleased(t *testing.T) {
	client, err := lock.Connect(redisAddr(), "")
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	key := lock.ImportKey("category_categories", time.Now().UnixNano())
	l := lock.NewRedis(client, time.Minute)

	lease, err := l.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, key)
	require.Error(t, err)
	assert.True(t, wkerr.IsConflict(err))

	require.NoError(t, lease.Refresh(ctx))
	require.NoError(t, lease.Release(ctx))

	again, err := l.Acquire(ctx, key)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))

	// Refreshing a released lease reports that it was lost.
	err = lease.Refresh(ctx)
	assert.True(t, wkerr.IsConflict(err))
}
