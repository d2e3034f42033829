// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

// Package postgres registers the PostgreSQL storage backend.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/wikicat/wikicat/internal/store"
	"github.com/wikicat/wikicat/internal/store/sqlstore"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is the PostgreSQL backend. Node ids come from BIGSERIAL sequences,
// which do not promise contiguous ranges under concurrent writers, so
// the resolver reads generated ids back with RETURNING.
type Store struct {
	*sqlstore.Store
}

func init() {
	store.RegisterBackend("postgres", func(cfg store.StorageConfig) (store.Store, error) {
		return Open(cfg.DSN)
	})
}

// Open connects to dsn, verifies the connection and applies migrations.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, wkerr.New(wkerr.CodeConfigValidateInvalidValue, "postgres backend requires storage.dsn")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, wkerr.Errorf(wkerr.CodeStoreDatabaseFailure, "database open: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, wkerr.Errorf(wkerr.CodeStoreDatabaseFailure, "database ping: %w", err)
	}
	slog.Info("database connected", "backend", "postgres")

	if err := sqlstore.Migrate(db, sqlstore.Postgres, migrations, "migrations"); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{Store: sqlstore.New(db, sqlstore.Postgres)}, nil
}
