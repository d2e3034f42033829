// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikicat/wikicat/internal/graph"
	"github.com/wikicat/wikicat/internal/store"
	"github.com/wikicat/wikicat/internal/store/sqlite"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

const (
	skosBroader = "<http://www.w3.org/2004/02/skos/core#broader>"
	dcSubject   = "<http://purl.org/dc/terms/subject>"
)

func category(name string) string {
	return "<http://dbpedia.org/resource/Category:" + name + ">"
}

func writeNT(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

// importFixture loads a small graph into version 3.9:
//
//	Animals <- Mammals <- {Cats, Dogs}
func importFixture(t *testing.T, c *cli) {
	t.Helper()
	edges := writeNT(t, c.home, "skos.nt",
		category("Mammals")+" "+skosBroader+" "+category("Animals")+" .",
		category("Cats")+" "+skosBroader+" "+category("Mammals")+" .",
		category("Dogs")+" "+skosBroader+" "+category("Mammals")+" .",
		category("Cats")+" <http://www.w3.org/2004/02/skos/core#related> "+category("Pets")+" .",
	)
	articles := writeNT(t, c.home, "articles.nt",
		"<http://dbpedia.org/resource/Tom> "+dcSubject+" "+category("Cats")+" .",
		"<http://dbpedia.org/resource/Rex> "+dcSubject+" "+category("Dogs")+" .",
	)

	out, err := c.run("import", "--datasets", "category_categories", "--file", edges)
	require.NoError(t, err)
	assert.Contains(t, out, "category_categories")

	_, err = c.run("import", "--datasets", "article_categories", "--file", articles)
	require.NoError(t, err)
}

func readCSV(t *testing.T, out string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	return records
}

func column(records [][]string, header string) []string {
	idx := -1
	for i, h := range records[0] {
		if h == header {
			idx = i
		}
	}
	var out []string
	for _, r := range records[1:] {
		out = append(out, r[idx])
	}
	return out
}

func TestImport_FileCreatesVersion(t *testing.T) {
	c := newCLI(t)
	importFixture(t, c)

	out, err := c.run("versions")
	require.NoError(t, err)
	assert.Contains(t, out, "3.9")
	assert.Contains(t, out, "2013-09-17")
}

func TestImport_FileNeedsSingleResource(t *testing.T) {
	c := newCLI(t)
	path := writeNT(t, c.home, "any.nt")

	_, err := c.run("import", "--file", path)
	require.Error(t, err)
	assert.True(t, wkerr.HasCode(err, wkerr.CodeCLIInputInvalid), "got: %v", err)
}

func TestImport_UnknownDataset(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("import", "--datasets", "infobox")
	require.Error(t, err)
	assert.True(t, wkerr.HasCode(err, wkerr.CodeCatalogDatasetInvalid), "got: %v", err)
	assert.True(t, wkerr.IsInvalidInput(err))
	assert.Equal(t, []string{"infobox"}, wkerr.FieldsOf(err)["datasets"])
}

func TestFetch_UnknownDataset(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("fetch", "--datasets", "infobox")
	require.Error(t, err)
	assert.True(t, wkerr.HasCode(err, wkerr.CodeCatalogDatasetInvalid), "got: %v", err)
	assert.True(t, wkerr.IsInvalidInput(err))
}

func TestStats_Converges(t *testing.T) {
	c := newCLI(t)
	importFixture(t, c)

	out, err := c.run("stats")
	require.NoError(t, err)
	assert.Contains(t, out, "converged")
	assert.NotContains(t, out, "warning:")

	s, err := sqlite.Open(c.db)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	versions, err := s.ListVersions(ctx)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	animals, err := s.CategoryByName(ctx, "Category:Animals")
	require.NoError(t, err)
	st, err := s.GetStats(ctx, animals.ID, versions[0].ID)
	require.NoError(t, err)
	require.True(t, st.Resolved())
	assert.Equal(t, int64(3), *st.TotalCategories)
	assert.Equal(t, int64(2), *st.TotalArticles)
}

func TestStats_WarnsOnCycle(t *testing.T) {
	c := newCLI(t)
	edges := writeNT(t, c.home, "cycle.nt",
		category("A")+" "+skosBroader+" "+category("B")+" .",
		category("B")+" "+skosBroader+" "+category("A")+" .",
	)
	_, err := c.run("import", "--datasets", "category_categories", "--file", edges)
	require.NoError(t, err)

	out, err := c.run("stats", "--passes", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "incomplete")
	assert.Contains(t, out, "warning: version 3.9")
}

func TestStats_UnknownVersion(t *testing.T) {
	c := newCLI(t)
	importFixture(t, c)

	_, err := c.run("stats", "--versions", "1.0")
	require.Error(t, err)
	assert.True(t, wkerr.HasCode(err, wkerr.CodeCLIInputInvalid), "got: %v", err)
}

func TestSubtree_Nodes(t *testing.T) {
	c := newCLI(t)
	importFixture(t, c)

	out, err := c.run("subtree", "Category:Animals")
	require.NoError(t, err)

	records := readCSV(t, out)
	assert.Equal(t, nodeHeader, records[0])
	require.Len(t, records, 5)
	assert.ElementsMatch(t,
		[]string{"Category:Animals", "Category:Mammals", "Category:Cats", "Category:Dogs"},
		column(records, "category_name"))
	assert.Equal(t, []string{"0", "1", "2", "2"}, column(records, "depth"))
	assert.Equal(t, []string{"3.9", "3.9", "3.9", "3.9"}, column(records, "version_version"))
	assert.Equal(t, "2013-09-17", records[1][2])
}

func TestSubtree_DepthAndDirection(t *testing.T) {
	c := newCLI(t)
	importFixture(t, c)

	out, err := c.run("subtree", "Category:Animals", "--depth", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Category:Animals", "Category:Mammals"}, column(readCSV(t, out), "category_name"))

	out, err = c.run("subtree", "Category:Cats", "--direction", "up")
	require.NoError(t, err)
	assert.Equal(t, []string{"Category:Cats", "Category:Mammals", "Category:Animals"}, column(readCSV(t, out), "category_name"))
}

func TestSubtree_EdgesToFile(t *testing.T) {
	c := newCLI(t)
	importFixture(t, c)
	path := filepath.Join(c.home, "edges.csv")

	out, err := c.run("subtree", "Category:Animals", "--edges", "--output", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records := readCSV(t, string(data))
	assert.Equal(t, edgeHeader, records[0])
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Category:Animals", "Category:Mammals", "Category:Mammals"}, column(records, "broader_name"))
}

func TestSubtree_UnknownRoot(t *testing.T) {
	c := newCLI(t)
	importFixture(t, c)

	_, err := c.run("subtree", "Category:Plants")
	require.Error(t, err)
	assert.True(t, wkerr.IsNotFound(err), "got: %v", err)
}

func TestSubtree_InvalidDirection(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("subtree", "Category:Animals", "--direction", "sideways")
	require.Error(t, err)
	assert.True(t, wkerr.HasCode(err, wkerr.CodeGraphDirectionInvalid), "got: %v", err)
}

func TestWriteSubtree_PerVersion(t *testing.T) {
	ctx := context.Background()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "subtree.db"))
	require.NoError(t, err)
	defer s.Close()

	newer, err := s.EnsureVersion(ctx, "3.9", "en", time.Date(2013, 9, 17, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	older, err := s.EnsureVersion(ctx, "3.8", "en", time.Date(2012, 8, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	ids, err := s.CreateNodes(ctx, store.KindCategory, []string{"Root", "Child", "Other"})
	require.NoError(t, err)
	_, err = s.InsertRows(ctx, "category_categories", []string{"narrower_id", "broader_id", "version_id"}, [][]any{
		{ids["Child"], ids["Root"], newer.ID},
		{ids["Other"], ids["Root"], older.ID},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := writeSubtree(ctx, &buf, graph.NewWalker(s), "Root", []store.Version{*older, *newer}, subtreeOptions{
		direction: graph.Down,
		depth:     5,
		dedup:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	records := readCSV(t, buf.String())
	assert.Equal(t, []string{"3.8", "3.8", "3.9", "3.9"}, column(records, "version_version"))
	assert.Equal(t, []string{"Root", "Other", "Root", "Child"}, column(records, "category_name"))
}

func TestVersionsByLabel(t *testing.T) {
	all := []store.Version{{ID: 2, Label: "3.8"}, {ID: 1, Label: "3.9"}}

	got, err := versionsByLabel(all, nil)
	require.NoError(t, err)
	assert.Equal(t, all, got)

	got, err = versionsByLabel(all, []string{"3.9", "3.8"})
	require.NoError(t, err)
	assert.Equal(t, all, got, "store order is kept")

	_, err = versionsByLabel(all, []string{"3.9", "2.0", "1.0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2.0, 1.0")
}

func TestVersions_Empty(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("versions")
	require.NoError(t, err)
	assert.Equal(t, "No versions imported.\n", out)
}

func TestVersions_Catalog(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("versions", "--catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "3.9")
	assert.Contains(t, out, "2013-09-17")
	assert.Contains(t, out, "0/3")
}

func TestFetch_Clean(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("fetch", "--datasets", "category_labels", "--clean")
	require.NoError(t, err)
	assert.Contains(t, out, "removed")
	assert.Contains(t, out, filepath.Join(c.home, "cache"))
}

func TestDoctor(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "Binary:")
	assert.Contains(t, out, "sqlite ok, 0 version(s) imported")
	assert.Contains(t, out, "local (single process)")
	assert.Contains(t, out, "no cache directory")
	assert.Contains(t, out, "available")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 bytes", formatBytes(512))
	assert.Equal(t, "1.5 MB", formatBytes(1536*1024))
	assert.Equal(t, "2.0 GB", formatBytes(2*1024*1024*1024))
}
