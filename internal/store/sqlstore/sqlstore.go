// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

// Package sqlstore implements store.Store on database/sql. The sqlite and
// postgres backends share it and differ only in Dialect and migrations.
package sqlstore

import (
	"context"
	"database/sql"
	"io/fs"
	"log/slog"
	"slices"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/wikicat/wikicat/internal/store"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// versionedTables lists the writable relations and their insertable columns.
var versionedTables = map[string][]string{
	"category_categories": {"narrower_id", "broader_id", "version_id"},
	"article_categories":  {"article_id", "category_id", "version_id"},
	"category_labels":     {"category_id", "label", "version_id"},
}

// Store is the dialect-neutral relational store.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// New wraps an open, migrated database.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, logger: slog.Default()}
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect of the store.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return dbErr(err, "pinging database")
	}
	return nil
}

// Rebind rewrites query placeholders for the store dialect.
func (s *Store) Rebind(query string) string {
	return s.dialect.Rebind(query)
}

var gooseMu sync.Mutex

// Migrate applies the embedded goose migrations found under dir in fsys.
// goose keeps its base FS and dialect in package state, so concurrent
// migrations of different backends are serialized.
func Migrate(db *sql.DB, dialect Dialect, fsys fs.FS, dir string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect.Name); err != nil {
		return wkerr.Errorf(wkerr.CodeStoreMigrateFailure, "goose set dialect: %w", err)
	}
	if err := goose.Up(db, dir); err != nil {
		return wkerr.Errorf(wkerr.CodeStoreMigrateFailure, "goose up: %w", err)
	}
	return nil
}

// CheckColumns validates table and columns against the writable relations.
func CheckColumns(table string, columns []string) error {
	allowed, ok := versionedTables[table]
	if !ok {
		return wkerr.Wrap(store.ErrInvalidInput, wkerr.CodeStoreInvalidInput, "unknown table",
			wkerr.Field("table", table))
	}
	if len(columns) == 0 {
		return wkerr.Wrap(store.ErrInvalidInput, wkerr.CodeStoreInvalidInput, "no columns",
			wkerr.Field("table", table))
	}
	for _, col := range columns {
		if !slices.Contains(allowed, col) {
			return wkerr.Wrap(store.ErrInvalidInput, wkerr.CodeStoreInvalidInput, "unknown column",
				wkerr.Field("table", table), wkerr.Field("column", col))
		}
	}
	return nil
}

func dbErr(err error, msg string, fields ...wkerr.Attr) error {
	return wkerr.Wrap(err, wkerr.CodeStoreDatabaseFailure, msg, fields...)
}

func notFound(msg string, fields ...wkerr.Attr) error {
	return wkerr.Wrap(store.ErrNotFound, wkerr.CodeStoreEntityNotFound, msg, fields...)
}

// rollback is deferred after BeginTx; it is a no-op once the tx committed.
func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbErr(err, "begin transaction")
	}
	defer rollback(tx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return dbErr(err, "commit transaction")
	}
	return nil
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// Unique returns names without duplicates or empty strings, keeping the
// order of first occurrence.
func Unique(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Chunks splits items into slices of at most size elements.
func Chunks[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var out [][]T
	for len(items) > 0 {
		n := min(size, len(items))
		out = append(out, items[:n])
		items = items[n:]
	}
	return out
}
