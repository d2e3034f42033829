// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package dbpedia_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikicat/wikicat/internal/dbpedia"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

// testDir creates a temp directory for a test and returns cleanup func.
func testDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "wikicat-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// mirror serves testdata/skos_categories.nt.bz2 for any skos file and 404
// for everything else.
func mirror(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	payload, err := os.ReadFile("testdata/skos_categories.nt.bz2")
	require.NoError(t, err)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if !strings.Contains(r.URL.Path, "skos_categories") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func mirrorCatalog(t *testing.T, base string) *dbpedia.Catalog {
	t.Helper()
	doc := `
default_version: "3.9"
default_language: en
datasets:
  - {name: category_categories, file: skos_categories}
  - {name: category_labels, file: category_labels}
layouts:
  mirror:
    url: "` + base + `/{remote}/{language}/{file}_{language}.{format}.bz2"
versions:
  - {name: "3.9", date: "2013-09-17", layout: mirror}
  - {name: "3.8", date: "2012-08-06", layout: mirror}
`
	c, err := dbpedia.ParseCatalog([]byte(doc))
	require.NoError(t, err)
	return c
}

func TestDownloader_FetchOnce(t *testing.T) {
	ctx := context.Background()
	srv, hits := mirror(t)
	catalog := mirrorCatalog(t, srv.URL)
	dir := testDir(t)
	d := dbpedia.NewDownloader(dir, catalog, dbpedia.WithHTTPClient(srv.Client()))

	r, err := catalog.Resource("category_categories", "3.9", "en")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "3.9", "en", "nt", "category_categories.bz2"), d.Path(r))
	assert.False(t, d.Cached(r))

	path, err := d.Fetch(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, d.Path(r), path)
	assert.True(t, d.Cached(r))
	assert.Equal(t, int32(1), hits.Load())

	_, err = d.Fetch(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "cached file is not downloaded again")

	src, err := dbpedia.OpenRecordSource(path, r.Dataset)
	require.NoError(t, err)
	recs, err := drain(t, src)
	require.NoError(t, err)
	assert.Len(t, recs, 4)
	require.NoError(t, src.Close())

	require.NoError(t, d.Clean(r))
	assert.False(t, d.Cached(r))
	require.NoError(t, d.Clean(r), "cleaning twice is fine")
}

func TestDownloader_UpstreamFailure(t *testing.T) {
	srv, _ := mirror(t)
	catalog := mirrorCatalog(t, srv.URL)
	dir := testDir(t)
	d := dbpedia.NewDownloader(dir, catalog, dbpedia.WithHTTPClient(srv.Client()))

	r, err := catalog.Resource("category_labels", "3.9", "en")
	require.NoError(t, err)
	_, err = d.Fetch(context.Background(), r)
	require.Error(t, err)
	assert.True(t, wkerr.IsUpstreamFailure(err))
	assert.False(t, d.Cached(r), "failed downloads leave nothing behind")

	entries, err := os.ReadDir(filepath.Dir(d.Path(r)))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloader_FetchAll(t *testing.T) {
	srv, hits := mirror(t)
	catalog := mirrorCatalog(t, srv.URL)
	dir := testDir(t)
	d := dbpedia.NewDownloader(dir, catalog, dbpedia.WithHTTPClient(srv.Client()))

	rs, err := catalog.Resources([]string{"category_categories"}, []string{"3.9", "3.8"}, []string{"en"})
	require.NoError(t, err)

	paths, err := d.FetchAll(context.Background(), rs, 2)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Contains(t, paths[0], filepath.Join("3.9", "en"))
	assert.Contains(t, paths[1], filepath.Join("3.8", "en"))
	assert.Equal(t, int32(2), hits.Load())

	require.NoError(t, d.CleanAll())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestDownloader_FetchAllStopsOnError(t *testing.T) {
	srv, _ := mirror(t)
	catalog := mirrorCatalog(t, srv.URL)
	d := dbpedia.NewDownloader(testDir(t), catalog, dbpedia.WithHTTPClient(srv.Client()))

	rs, err := catalog.Resources([]string{"category_categories", "category_labels"}, []string{"3.9"}, []string{"en"})
	require.NoError(t, err)
	_, err = d.FetchAll(context.Background(), rs, 1)
	require.Error(t, err)
	assert.True(t, wkerr.IsUpstreamFailure(err))
}
