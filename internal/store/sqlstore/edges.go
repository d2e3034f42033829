// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/wikicat/wikicat/internal/store"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

func (s *Store) Neighbors(ctx context.Context, ids []int64, dir store.Direction, scope store.Scope) ([]store.Edge, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	col := "broader_id"
	if dir == store.Up {
		col = "narrower_id"
	}

	var edges []store.Edge
	for _, chunk := range Chunks(ids, s.dialect.MaxParams-1) {
		q := `SELECT e.id, e.narrower_id, n.name, e.broader_id, b.name, e.version_id
FROM category_categories e
JOIN categories n ON n.id = e.narrower_id
JOIN categories b ON b.id = e.broader_id
WHERE e.` + col + ` IN (` + Placeholders(len(chunk)) + `)`
		args := int64Args(chunk)
		if !scope.Unscoped() {
			q += ` AND e.version_id = ?`
			args = append(args, scope.VersionID)
		}
		q += ` ORDER BY e.` + col + `, e.id`

		rows, err := s.db.QueryContext(ctx, s.Rebind(q), args...)
		if err != nil {
			return nil, dbErr(err, "querying neighbors", wkerr.Field("direction", dir.String()))
		}
		for rows.Next() {
			var e store.Edge
			if err := rows.Scan(&e.ID, &e.Narrower.ID, &e.Narrower.Name, &e.Broader.ID, &e.Broader.Name, &e.VersionID); err != nil {
				_ = rows.Close()
				return nil, dbErr(err, "scanning edge")
			}
			edges = append(edges, e)
		}
		if err := rows.Close(); err != nil {
			return nil, dbErr(err, "closing edge rows")
		}
		if err := rows.Err(); err != nil {
			return nil, dbErr(err, "iterating edges")
		}
	}
	return edges, nil
}

func (s *Store) DeleteVersion(ctx context.Context, table string, versionID int64) (int64, error) {
	if _, ok := versionedTables[table]; !ok {
		return 0, CheckColumns(table, nil)
	}
	if versionID == 0 {
		return 0, wkerr.Wrap(store.ErrInvalidInput, wkerr.CodeStoreScopeInvalid, "delete requires a version",
			wkerr.Field("table", table))
	}

	res, err := s.db.ExecContext(ctx, s.Rebind(`DELETE FROM `+table+` WHERE version_id = ?`), versionID)
	if err != nil {
		return 0, dbErr(err, "deleting version rows", wkerr.Field("table", table), wkerr.FieldVersionID(versionID))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbErr(err, "reading deleted row count")
	}
	return n, nil
}

func (s *Store) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if err := CheckColumns(table, columns); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, wkerr.Wrap(store.ErrInvalidInput, wkerr.CodeStoreInvalidInput, "row width mismatch",
				wkerr.Field("table", table), wkerr.Field("row", i), wkerr.Field("width", len(row)))
		}
	}

	prefix := `INSERT INTO ` + table + ` (` + strings.Join(columns, ", ") + `) VALUES `
	var inserted int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, chunk := range Chunks(rows, s.dialect.RowsPerStatement(len(columns))) {
			args := make([]any, 0, len(chunk)*len(columns))
			for _, row := range chunk {
				args = append(args, row...)
			}
			res, err := tx.ExecContext(ctx, s.Rebind(prefix+Values(len(chunk), len(columns))), args...)
			if err != nil {
				return dbErr(err, "inserting rows", wkerr.Field("table", table), wkerr.Field("count", len(chunk)))
			}
			n, err := res.RowsAffected()
			if err != nil {
				return dbErr(err, "reading inserted row count")
			}
			inserted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// categoriesVia lists the categories joined to categoryID through
// category_categories, from matchCol to joinCol.
func (s *Store) categoriesVia(ctx context.Context, categoryID int64, matchCol, joinCol string, scope store.Scope) ([]store.Category, error) {
	q := `SELECT DISTINCT c.id, c.name FROM category_categories e
JOIN categories c ON c.id = e.` + joinCol + `
WHERE e.` + matchCol + ` = ?`
	args := []any{categoryID}
	if !scope.Unscoped() {
		q += ` AND e.version_id = ?`
		args = append(args, scope.VersionID)
	}
	q += ` ORDER BY c.name`

	rows, err := s.db.QueryContext(ctx, s.Rebind(q), args...)
	if err != nil {
		return nil, dbErr(err, "listing related categories", wkerr.Field("category_id", categoryID))
	}
	defer func() { _ = rows.Close() }()

	var out []store.Category
	for rows.Next() {
		var c store.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, dbErr(err, "scanning category")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "iterating categories")
	}
	return out, nil
}

func (s *Store) Subcategories(ctx context.Context, categoryID int64, scope store.Scope) ([]store.Category, error) {
	return s.categoriesVia(ctx, categoryID, "broader_id", "narrower_id", scope)
}

func (s *Store) Supercategories(ctx context.Context, categoryID int64, scope store.Scope) ([]store.Category, error) {
	return s.categoriesVia(ctx, categoryID, "narrower_id", "broader_id", scope)
}

func (s *Store) CountArticles(ctx context.Context, categoryID int64, scope store.Scope) (int64, error) {
	q := `SELECT COUNT(*) FROM article_categories WHERE category_id = ?`
	args := []any{categoryID}
	if !scope.Unscoped() {
		q += ` AND version_id = ?`
		args = append(args, scope.VersionID)
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, s.Rebind(q), args...).Scan(&n); err != nil {
		return 0, dbErr(err, "counting articles", wkerr.Field("category_id", categoryID))
	}
	return n, nil
}

func (s *Store) SearchCategories(ctx context.Context, query string, limit int) ([]store.Category, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(query) + "%"

	rows, err := s.db.QueryContext(ctx,
		s.Rebind(`SELECT id, name FROM categories WHERE name LIKE ? ESCAPE '\' ORDER BY name LIMIT ?`),
		pattern, limit,
	)
	if err != nil {
		return nil, dbErr(err, "searching categories")
	}
	defer func() { _ = rows.Close() }()

	var out []store.Category
	for rows.Next() {
		var c store.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, dbErr(err, "scanning category")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "iterating search results")
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
