// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikicat/wikicat/internal/store"
	_ "github.com/wikicat/wikicat/internal/store/sqlite" // register sqlite backend
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

func TestOpen_SQLiteBackend(t *testing.T) {
	path := testDBPath(t, "factory")

	s, err := store.Open(store.StorageConfig{Backend: "sqlite", Path: path})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	versions, err := s.ListVersions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, versions)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_DefaultBackendIsSQLite(t *testing.T) {
	s, err := store.Open(store.StorageConfig{Path: testDBPath(t, "default")})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Contains(t, store.Backends(), "sqlite")
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := store.Open(store.StorageConfig{Backend: "oracle"})
	require.Error(t, err)
	assert.True(t, wkerr.HasCode(err, wkerr.CodeStoreBackendUnsupported))
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(testDir(t), "nested", "dir", "wikicat.db")

	s, err := store.Open(store.StorageConfig{Backend: "sqlite", Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := testDBPath(t, "reopen")
	ctx := context.Background()

	s, err := store.Open(store.StorageConfig{Path: path})
	require.NoError(t, err)
	id, err := s.CreateNode(ctx, store.KindCategory, "Animals")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = store.Open(store.StorageConfig{Path: path})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.LookupNode(ctx, store.KindCategory, "Animals")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}
