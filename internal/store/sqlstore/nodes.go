// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wikicat/wikicat/internal/store"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

func nodeTable(kind store.NodeKind) (string, error) {
	table, err := kind.Table()
	if err != nil {
		return "", wkerr.Wrap(err, wkerr.CodeStoreInvalidInput, "resolving node table")
	}
	return table, nil
}

func (s *Store) LookupNode(ctx context.Context, kind store.NodeKind, name string) (int64, error) {
	table, err := nodeTable(kind)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.db.QueryRowContext(ctx, s.Rebind(`SELECT id FROM `+table+` WHERE name = ?`), name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, notFound("node not found", wkerr.Field("kind", string(kind)), wkerr.Field("name", name))
	}
	if err != nil {
		return 0, dbErr(err, "looking up node", wkerr.Field("kind", string(kind)))
	}
	return id, nil
}

func (s *Store) FindNodes(ctx context.Context, kind store.NodeKind, names []string) (map[string]int64, error) {
	table, err := nodeTable(kind)
	if err != nil {
		return nil, err
	}

	names = Unique(names)
	found := make(map[string]int64, len(names))
	for _, chunk := range Chunks(names, s.dialect.MaxParams) {
		q := `SELECT id, name FROM ` + table + ` WHERE name IN (` + Placeholders(len(chunk)) + `)`
		rows, err := s.db.QueryContext(ctx, s.Rebind(q), stringArgs(chunk)...)
		if err != nil {
			return nil, dbErr(err, "finding nodes", wkerr.Field("kind", string(kind)))
		}
		for rows.Next() {
			var (
				id   int64
				name string
			)
			if err := rows.Scan(&id, &name); err != nil {
				_ = rows.Close()
				return nil, dbErr(err, "scanning node")
			}
			found[name] = id
		}
		if err := rows.Close(); err != nil {
			return nil, dbErr(err, "closing node rows")
		}
		if err := rows.Err(); err != nil {
			return nil, dbErr(err, "iterating nodes")
		}
	}
	return found, nil
}

func (s *Store) CreateNode(ctx context.Context, kind store.NodeKind, name string) (int64, error) {
	table, err := nodeTable(kind)
	if err != nil {
		return 0, err
	}
	if name == "" {
		return 0, wkerr.Wrap(store.ErrInvalidInput, wkerr.CodeStoreInvalidInput, "empty node name")
	}

	var id int64
	q := `INSERT INTO ` + table + ` (name) VALUES (?) RETURNING id`
	if err := s.db.QueryRowContext(ctx, s.Rebind(q), name).Scan(&id); err != nil {
		return 0, dbErr(err, "creating node", wkerr.Field("kind", string(kind)), wkerr.Field("name", name))
	}
	return id, nil
}

func (s *Store) CreateNodes(ctx context.Context, kind store.NodeKind, names []string) (map[string]int64, error) {
	table, err := nodeTable(kind)
	if err != nil {
		return nil, err
	}

	names = Unique(names)
	created := make(map[string]int64, len(names))
	if len(names) == 0 {
		return created, nil
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, chunk := range Chunks(names, s.dialect.MaxParams) {
			q := `INSERT INTO ` + table + ` (name) VALUES ` + Values(len(chunk), 1) + ` RETURNING id, name`
			rows, err := tx.QueryContext(ctx, s.Rebind(q), stringArgs(chunk)...)
			if err != nil {
				return dbErr(err, "creating nodes", wkerr.Field("kind", string(kind)), wkerr.Field("count", len(chunk)))
			}
			for rows.Next() {
				var (
					id   int64
					name string
				)
				if err := rows.Scan(&id, &name); err != nil {
					_ = rows.Close()
					return dbErr(err, "scanning created node")
				}
				created[name] = id
			}
			if err := rows.Close(); err != nil {
				return dbErr(err, "closing created rows")
			}
			if err := rows.Err(); err != nil {
				return dbErr(err, "iterating created nodes")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Store) CategoryByName(ctx context.Context, name string) (*store.Category, error) {
	var c store.Category
	err := s.db.QueryRowContext(ctx, s.Rebind(`SELECT id, name FROM categories WHERE name = ?`), name).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("category not found", wkerr.FieldCategory(name))
	}
	if err != nil {
		return nil, dbErr(err, "getting category", wkerr.FieldCategory(name))
	}
	return &c, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (*store.Category, error) {
	var c store.Category
	err := s.db.QueryRowContext(ctx, s.Rebind(`SELECT id, name FROM categories WHERE id = ?`), id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("category not found", wkerr.Field("category_id", id))
	}
	if err != nil {
		return nil, dbErr(err, "getting category", wkerr.Field("category_id", id))
	}
	return &c, nil
}
