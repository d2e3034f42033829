// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wikicat/wikicat/internal/store"
	"github.com/wikicat/wikicat/internal/store/sqlite"
)

// testDir creates a temp directory for a test and returns cleanup func.
func testDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "wikicat-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// testDBPath returns a temp SQLite database path.
func testDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(testDir(t), name+".db")
}

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(testDBPath(t, "wikicat"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testVersion(t *testing.T, s store.Store, label string) *store.Version {
	t.Helper()
	v, err := s.EnsureVersion(context.Background(), label, "en", time.Date(2013, 9, 17, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return v
}

// addEdges creates the named categories and inserts narrower->broader edges.
func addEdges(t *testing.T, s store.Store, v *store.Version, pairs ...[2]string) {
	t.Helper()
	ctx := context.Background()

	var names []string
	for _, p := range pairs {
		names = append(names, p[0], p[1])
	}
	ids := ensureCategories(t, s, names...)

	rows := make([][]any, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []any{ids[p[0]], ids[p[1]], v.ID})
	}
	_, err := s.InsertRows(ctx, "category_categories", []string{"narrower_id", "broader_id", "version_id"}, rows)
	require.NoError(t, err)
}

func ensureCategories(t *testing.T, s store.Store, names ...string) map[string]int64 {
	t.Helper()
	ctx := context.Background()

	ids, err := s.FindNodes(ctx, store.KindCategory, names)
	require.NoError(t, err)

	var missing []string
	for _, n := range names {
		if _, ok := ids[n]; !ok {
			missing = append(missing, n)
		}
	}
	created, err := s.CreateNodes(ctx, store.KindCategory, missing)
	require.NoError(t, err)
	for n, id := range created {
		ids[n] = id
	}
	return ids
}
