// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package loader

import (
	"context"
	"io"
)

// Record maps field names to raw values.
type Record map[string]string

// Source produces records. Next returns io.EOF once exhausted.
type Source interface {
	Next(ctx context.Context) (Record, error)
}

// SliceSource serves records from memory.
type SliceSource struct {
	records []Record
	pos     int
}

// NewSliceSource returns a Source over records.
func NewSliceSource(records ...Record) *SliceSource {
	return &SliceSource{records: records}
}

func (s *SliceSource) Next(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Record, error)

func (f SourceFunc) Next(ctx context.Context) (Record, error) {
	return f(ctx)
}
