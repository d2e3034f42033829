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

// Children of a node are the narrower endpoints of its non-self-loop edges
// in the same version. Every statement below is guarded so that it only
// fills columns that are still NULL.

const ensureStatsSQL = `INSERT INTO category_stats (category_id, version_id)
SELECT c.id, CAST(? AS BIGINT) FROM categories c
WHERE NOT EXISTS (
	SELECT 1 FROM category_stats s WHERE s.category_id = c.id AND s.version_id = ?
)`

const resetStatsSQL = `UPDATE category_stats SET
	num_subcategories = NULL,
	num_articles = NULL,
	num_supercategories = NULL,
	total_categories = NULL,
	total_articles = NULL,
	subcategories_reporting = NULL
WHERE version_id = ?`

const computeImmediateSQL = `UPDATE category_stats AS s SET
	num_subcategories = (
		SELECT COUNT(*) FROM category_categories e
		WHERE e.broader_id = s.category_id AND e.version_id = s.version_id AND e.narrower_id <> e.broader_id
	),
	num_supercategories = (
		SELECT COUNT(*) FROM category_categories e
		WHERE e.narrower_id = s.category_id AND e.version_id = s.version_id AND e.narrower_id <> e.broader_id
	),
	num_articles = (
		SELECT COUNT(*) FROM article_categories a
		WHERE a.category_id = s.category_id AND a.version_id = s.version_id
	)
WHERE s.version_id = ? AND s.num_subcategories IS NULL`

const setBaselinesSQL = `UPDATE category_stats SET
	total_categories = 0,
	total_articles = num_articles,
	subcategories_reporting = 0
WHERE version_id = ? AND num_subcategories = 0 AND total_categories IS NULL`

const refreshReportingSQL = `UPDATE category_stats AS s SET
	subcategories_reporting = (
		SELECT COUNT(*) FROM category_categories e
		JOIN category_stats c ON c.category_id = e.narrower_id AND c.version_id = e.version_id
		WHERE e.broader_id = s.category_id AND e.version_id = s.version_id
			AND e.narrower_id <> e.broader_id AND c.total_categories IS NOT NULL
	)
WHERE s.version_id = ? AND s.total_categories IS NULL AND s.num_subcategories IS NOT NULL`

const resolveTotalsSQL = `UPDATE category_stats AS s SET
	total_categories = s.num_subcategories + (
		SELECT COALESCE(SUM(c.total_categories), 0) FROM category_categories e
		JOIN category_stats c ON c.category_id = e.narrower_id AND c.version_id = e.version_id
		WHERE e.broader_id = s.category_id AND e.version_id = s.version_id AND e.narrower_id <> e.broader_id
	),
	total_articles = s.num_articles + (
		SELECT COALESCE(SUM(c.total_articles), 0) FROM category_categories e
		JOIN category_stats c ON c.category_id = e.narrower_id AND c.version_id = e.version_id
		WHERE e.broader_id = s.category_id AND e.version_id = s.version_id AND e.narrower_id <> e.broader_id
	)
WHERE s.version_id = ? AND s.total_categories IS NULL AND s.subcategories_reporting = s.num_subcategories`

func checkVersion(versionID int64) error {
	if versionID == 0 {
		return wkerr.Wrap(store.ErrInvalidInput, wkerr.CodeStoreScopeInvalid, "stats require a version")
	}
	return nil
}

func (s *Store) execStats(ctx context.Context, op, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.Rebind(query), args...)
	if err != nil {
		return 0, dbErr(err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbErr(err, op)
	}
	return n, nil
}

func (s *Store) EnsureStats(ctx context.Context, versionID int64) (int64, error) {
	if err := checkVersion(versionID); err != nil {
		return 0, err
	}
	return s.execStats(ctx, "ensuring stats rows", ensureStatsSQL, versionID, versionID)
}

func (s *Store) ResetStats(ctx context.Context, versionID int64) (int64, error) {
	if err := checkVersion(versionID); err != nil {
		return 0, err
	}
	return s.execStats(ctx, "resetting stats", resetStatsSQL, versionID)
}

func (s *Store) ComputeImmediate(ctx context.Context, versionID int64) (int64, error) {
	if err := checkVersion(versionID); err != nil {
		return 0, err
	}
	return s.execStats(ctx, "computing immediate counts", computeImmediateSQL, versionID)
}

func (s *Store) SetBaselines(ctx context.Context, versionID int64) (int64, error) {
	if err := checkVersion(versionID); err != nil {
		return 0, err
	}
	return s.execStats(ctx, "setting leaf baselines", setBaselinesSQL, versionID)
}

func (s *Store) PropagatePass(ctx context.Context, versionID int64) (int64, error) {
	if err := checkVersion(versionID); err != nil {
		return 0, err
	}

	var resolved int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.Rebind(refreshReportingSQL), versionID); err != nil {
			return dbErr(err, "refreshing reporting counts", wkerr.FieldVersionID(versionID))
		}
		res, err := tx.ExecContext(ctx, s.Rebind(resolveTotalsSQL), versionID)
		if err != nil {
			return dbErr(err, "resolving totals", wkerr.FieldVersionID(versionID))
		}
		resolved, err = res.RowsAffected()
		if err != nil {
			return dbErr(err, "reading resolved count")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return resolved, nil
}

func (s *Store) CountUnresolved(ctx context.Context, versionID int64) (int64, error) {
	if err := checkVersion(versionID); err != nil {
		return 0, err
	}

	var n int64
	err := s.db.QueryRowContext(ctx,
		s.Rebind(`SELECT COUNT(*) FROM category_stats WHERE version_id = ? AND total_categories IS NULL`),
		versionID,
	).Scan(&n)
	if err != nil {
		return 0, dbErr(err, "counting unresolved stats", wkerr.FieldVersionID(versionID))
	}
	return n, nil
}

func (s *Store) GetStats(ctx context.Context, categoryID, versionID int64) (*store.Stats, error) {
	const q = `SELECT num_subcategories, num_articles, num_supercategories,
	total_categories, total_articles, subcategories_reporting
FROM category_stats WHERE category_id = ? AND version_id = ?`

	var sub, art, sup, totCat, totArt, rep sql.NullInt64
	err := s.db.QueryRowContext(ctx, s.Rebind(q), categoryID, versionID).Scan(&sub, &art, &sup, &totCat, &totArt, &rep)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("stats not found", wkerr.Field("category_id", categoryID), wkerr.FieldVersionID(versionID))
	}
	if err != nil {
		return nil, dbErr(err, "getting stats", wkerr.Field("category_id", categoryID))
	}

	return &store.Stats{
		CategoryID:             categoryID,
		VersionID:              versionID,
		Subcategories:          nullableInt(sub),
		Articles:               nullableInt(art),
		Supercategories:        nullableInt(sup),
		TotalCategories:        nullableInt(totCat),
		TotalArticles:          nullableInt(totArt),
		SubcategoriesReporting: nullableInt(rep),
	}, nil
}

func nullableInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
