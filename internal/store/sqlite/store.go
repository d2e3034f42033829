// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

// Package sqlite registers the SQLite storage backend.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wikicat/wikicat/internal/store"
	"github.com/wikicat/wikicat/internal/store/sqlstore"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

const dsnOptions = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// Compile-time interface checks.
var (
	_ store.Store                 = (*Store)(nil)
	_ store.ContiguousNodeCreator = (*Store)(nil)
)

// Store is the SQLite backend. Besides the shared SQL implementation it
// creates node ranges with contiguous rowids.
type Store struct {
	*sqlstore.Store
}

// Open opens (or creates) the SQLite database at path and applies the
// schema migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, wkerr.Errorf(wkerr.CodeStoreDatabaseFailure, "creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+dsnOptions)
	if err != nil {
		return nil, wkerr.Errorf(wkerr.CodeStoreDatabaseFailure, "opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, wkerr.Errorf(wkerr.CodeStoreDatabaseFailure, "pinging sqlite db: %w", err)
	}

	if err := sqlstore.Migrate(db, sqlstore.SQLite, migrations, "migrations"); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{Store: sqlstore.New(db, sqlstore.SQLite)}, nil
}

// InsertNodesContiguous inserts names in one transaction and returns the
// id of names[0]; names[i] receives base+i. SQLite hands out max(rowid)+1
// for each new row and the transaction holds the write lock, so the range
// is contiguous. The range is verified before commit.
func (s *Store) InsertNodesContiguous(ctx context.Context, kind store.NodeKind, names []string) (int64, error) {
	table, err := kind.Table()
	if err != nil {
		return 0, wkerr.Wrap(err, wkerr.CodeStoreInvalidInput, "resolving node table")
	}
	if len(names) == 0 {
		return 0, nil
	}
	if len(sqlstore.Unique(names)) != len(names) {
		return 0, wkerr.Wrap(store.ErrInvalidInput, wkerr.CodeStoreInvalidInput, "names must be unique and non-empty",
			wkerr.Field("kind", string(kind)))
	}

	tx, err := s.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, wkerr.Errorf(wkerr.CodeStoreDatabaseFailure, "begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var base, last int64
	for i, chunk := range sqlstore.Chunks(names, s.Dialect().MaxParams) {
		args := make([]any, len(chunk))
		for j, name := range chunk {
			args[j] = name
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO `+table+` (name) VALUES `+sqlstore.Values(len(chunk), 1), args...)
		if err != nil {
			return 0, wkerr.Errorf(wkerr.CodeStoreDatabaseFailure, "inserting %s nodes: %w", kind, err)
		}
		last, err = res.LastInsertId()
		if err != nil {
			return 0, wkerr.Errorf(wkerr.CodeStoreDatabaseFailure, "reading last insert id: %w", err)
		}
		if i == 0 {
			base = last - int64(len(chunk)) + 1
		}
	}

	if last != base+int64(len(names))-1 {
		return 0, wkerr.New(wkerr.CodeStoreContiguousConflict, "inserted ids are not contiguous",
			wkerr.Field("base", base), wkerr.Field("last", last), wkerr.Field("count", len(names)))
	}

	if err := tx.Commit(); err != nil {
		return 0, wkerr.Errorf(wkerr.CodeStoreDatabaseFailure, "commit transaction: %w", err)
	}
	return base, nil
}
