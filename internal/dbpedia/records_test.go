// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package dbpedia_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikicat/wikicat/internal/dbpedia"
	"github.com/wikicat/wikicat/internal/loader"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

func drain(t *testing.T, src loader.Source) ([]loader.Record, error) {
	t.Helper()
	var out []loader.Record
	for {
		rec, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

func TestLastSegment(t *testing.T) {
	assert.Equal(t, "Category:World_War_II", dbpedia.LastSegment("http://dbpedia.org/resource/Category:World_War_II"))
	assert.Equal(t, "plain", dbpedia.LastSegment("plain"))
}

func TestRecordSource_ArticleCategories(t *testing.T) {
	doc := `<http://dbpedia.org/resource/Achilles> <http://purl.org/dc/terms/subject> <http://dbpedia.org/resource/Category:Characters_in_the_Iliad> .
<http://dbpedia.org/resource/Achilles> <http://purl.org/dc/terms/subject> <http://dbpedia.org/resource/Category:Greek_mythology> .
`
	src, err := dbpedia.NewRecordSource(strings.NewReader(doc), "article_categories")
	require.NoError(t, err)
	recs, err := drain(t, src)
	require.NoError(t, err)
	assert.Equal(t, []loader.Record{
		{"article": "Achilles", "category": "Category:Characters_in_the_Iliad"},
		{"article": "Achilles", "category": "Category:Greek_mythology"},
	}, recs)
}

func TestRecordSource_ArticleCategoriesRejectsOtherPredicates(t *testing.T) {
	doc := `<http://dbpedia.org/resource/Achilles> <http://www.w3.org/2000/01/rdf-schema#label> "Achilles"@en .`
	src, err := dbpedia.NewRecordSource(strings.NewReader(doc), "article_categories")
	require.NoError(t, err)
	_, err = drain(t, src)
	require.Error(t, err)
	assert.True(t, wkerr.HasCode(err, wkerr.CodeTripleParseInvalid))
}

func TestRecordSource_CategoryLabels(t *testing.T) {
	doc := `<http://dbpedia.org/resource/Category:British_monarchs> <http://www.w3.org/2000/01/rdf-schema#label> "British monarchs"@en .`
	src, err := dbpedia.NewRecordSource(strings.NewReader(doc), "category_labels")
	require.NoError(t, err)
	recs, err := drain(t, src)
	require.NoError(t, err)
	assert.Equal(t, []loader.Record{{"category": "Category:British_monarchs", "label": "British monarchs"}}, recs)

	bad := `<http://dbpedia.org/resource/Category:X> <http://www.w3.org/2000/01/rdf-schema#label> <http://x/y> .`
	src, err = dbpedia.NewRecordSource(strings.NewReader(bad), "category_labels")
	require.NoError(t, err)
	_, err = drain(t, src)
	assert.Error(t, err)
}

func TestOpenRecordSource_CompressedSkos(t *testing.T) {
	src, err := dbpedia.OpenRecordSource("testdata/skos_categories.nt.bz2", "category_categories")
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	recs, err := drain(t, src)
	require.NoError(t, err)
	assert.Equal(t, []loader.Record{
		{"narrower": "Category:Futurama", "broader": "Category:Animated_television_series"},
		{"narrower": "Category:World_War_II", "broader": "Category:Global_conflicts"},
		{"narrower": "Category:World_War_II", "broader": "Category:Modern_history"},
		{"narrower": "Category:Algebra", "broader": "Category:Mathematics"},
	}, recs)
}

func TestOpenRecordSource_Errors(t *testing.T) {
	_, err := dbpedia.OpenRecordSource("testdata/missing.nt.bz2", "category_categories")
	assert.Error(t, err)

	_, err = dbpedia.OpenRecordSource("testdata/skos_categories.nt.bz2", "redirects")
	assert.True(t, wkerr.IsInvalidInput(err))
}

func TestRecordSource_Cancelled(t *testing.T) {
	src, err := dbpedia.NewRecordSource(strings.NewReader(""), "category_labels")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
