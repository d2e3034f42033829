// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package dbpedia

import (
	"compress/bzip2"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/wikicat/wikicat/internal/loader"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

// Adapter turns a triple into a loader record. ok is false for triples the
// dataset does not import.
type Adapter func(t Triple) (rec loader.Record, ok bool, err error)

// LastSegment returns the part of an IRI after its final slash, which is
// the resource name DBpedia uses as natural key.
func LastSegment(iri string) string {
	if i := strings.LastIndexByte(iri, '/'); i >= 0 {
		return iri[i+1:]
	}
	return iri
}

func unexpected(t Triple, want string) error {
	return wkerr.New(wkerr.CodeTripleParseInvalid, "unexpected predicate",
		wkerr.Field("predicate", t.Predicate.Value), wkerr.Field("want", want))
}

// skosBroader keeps only broader relations: the subject is the narrower
// category.
func skosBroader(t Triple) (loader.Record, bool, error) {
	if !strings.HasSuffix(t.Predicate.Value, "broader") {
		return nil, false, nil
	}
	return loader.Record{
		"narrower": LastSegment(t.Subject.Value),
		"broader":  LastSegment(t.Object.Value),
	}, true, nil
}

func articleSubject(t Triple) (loader.Record, bool, error) {
	if !strings.HasSuffix(t.Predicate.Value, "subject") {
		return nil, false, unexpected(t, "subject")
	}
	return loader.Record{
		"article":  LastSegment(t.Subject.Value),
		"category": LastSegment(t.Object.Value),
	}, true, nil
}

func categoryLabel(t Triple) (loader.Record, bool, error) {
	if !strings.HasSuffix(t.Predicate.Value, "label") {
		return nil, false, unexpected(t, "label")
	}
	if t.Object.Kind != Literal {
		return nil, false, wkerr.New(wkerr.CodeTripleParseInvalid, "label must be a literal",
			wkerr.Field("subject", t.Subject.Value))
	}
	return loader.Record{
		"category": LastSegment(t.Subject.Value),
		"label":    t.Object.Value,
	}, true, nil
}

// AdapterFor returns the adapter of a dataset.
func AdapterFor(dataset string) (Adapter, error) {
	switch dataset {
	case "category_categories":
		return skosBroader, nil
	case "article_categories":
		return articleSubject, nil
	case "category_labels":
		return categoryLabel, nil
	default:
		return nil, wkerr.New(wkerr.CodeCatalogDatasetInvalid, "no adapter for dataset", wkerr.FieldDataset(dataset))
	}
}

// RecordSource streams loader records out of an N-Triples document.
type RecordSource struct {
	triples *TripleReader
	adapt   Adapter
	closer  io.Closer
}

var _ loader.Source = (*RecordSource)(nil)

// NewRecordSource reads the uncompressed N-Triples of dataset from r.
func NewRecordSource(r io.Reader, dataset string) (*RecordSource, error) {
	adapt, err := AdapterFor(dataset)
	if err != nil {
		return nil, err
	}
	return &RecordSource{triples: NewTripleReader(r), adapt: adapt}, nil
}

// OpenRecordSource opens a bzip2 compressed dataset file as downloaded by
// the Downloader.
func OpenRecordSource(path, dataset string) (*RecordSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wkerr.Wrap(err, wkerr.CodeDownloadCacheFailure, "opening dataset file", wkerr.Field("path", path))
	}
	src, err := NewRecordSource(bzip2.NewReader(f), dataset)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	src.closer = f
	return src, nil
}

func (s *RecordSource) Next(ctx context.Context) (loader.Record, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := s.triples.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, err
		}
		rec, ok, err := s.adapt(t)
		if err != nil {
			return nil, wkerr.With(err, wkerr.Field("line_number", s.triples.Line()))
		}
		if ok {
			return rec, nil
		}
	}
}

// Close closes the underlying file, if any.
func (s *RecordSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
