// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect captures the differences between the supported SQL engines.
// Queries are written with ? placeholders and rebound per dialect.
type Dialect struct {
	// Name is the goose dialect identifier.
	Name string
	// Numbered rewrites ? placeholders to $1, $2, ...
	Numbered bool
	// MaxParams bounds the bind parameters of a single statement.
	MaxParams int
}

var (
	SQLite   = Dialect{Name: "sqlite3", MaxParams: 32766}
	Postgres = Dialect{Name: "postgres", Numbered: true, MaxParams: 65535}
)

// Rebind rewrites the ? placeholders of query for the dialect.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// RowsPerStatement is how many rows of width cols fit into one statement.
func (d Dialect) RowsPerStatement(cols int) int {
	if cols <= 0 {
		return 0
	}
	n := d.MaxParams / cols
	if n < 1 {
		return 1
	}
	return n
}

// Placeholders returns "?, ?, ..." with n entries.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// Values returns the VALUES tuples for rows of width cols.
func Values(rows, cols int) string {
	tuple := "(" + Placeholders(cols) + ")"
	var b strings.Builder
	b.Grow(rows * (len(tuple) + 2))
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(tuple)
	}
	return b.String()
}
