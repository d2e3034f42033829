// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/wikicat/wikicat/internal/store"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

// dateLayout is how release dates are stored in dataset_versions.date.
const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(dateLayout, s)
	return t
}

const versionColumns = `id, version, language, date`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*store.Version, error) {
	var (
		v    store.Version
		date string
	)
	if err := row.Scan(&v.ID, &v.Label, &v.Language, &date); err != nil {
		return nil, err
	}
	v.Date = parseDate(date)
	return &v, nil
}

func (s *Store) EnsureVersion(ctx context.Context, label, language string, date time.Time) (*store.Version, error) {
	if label == "" {
		return nil, wkerr.Wrap(store.ErrInvalidInput, wkerr.CodeStoreInvalidInput, "empty version label")
	}

	v, err := scanVersion(s.db.QueryRowContext(ctx,
		s.Rebind(`SELECT `+versionColumns+` FROM dataset_versions WHERE version = ? AND language = ?`),
		label, language,
	))
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, dbErr(err, "getting version", wkerr.Field("version", label))
	}

	created := store.Version{Label: label, Language: language, Date: date}
	err = s.db.QueryRowContext(ctx,
		s.Rebind(`INSERT INTO dataset_versions (version, language, date) VALUES (?, ?, ?) RETURNING id`),
		label, language, formatDate(date),
	).Scan(&created.ID)
	if err != nil {
		return nil, dbErr(err, "creating version", wkerr.Field("version", label))
	}
	if !date.IsZero() {
		created.Date = parseDate(formatDate(date))
	}

	s.logger.Debug("registered dataset version", "version", label, "language", language, "id", created.ID)
	return &created, nil
}

func (s *Store) GetVersion(ctx context.Context, id int64) (*store.Version, error) {
	v, err := scanVersion(s.db.QueryRowContext(ctx,
		s.Rebind(`SELECT `+versionColumns+` FROM dataset_versions WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("version not found", wkerr.FieldVersionID(id))
	}
	if err != nil {
		return nil, dbErr(err, "getting version", wkerr.FieldVersionID(id))
	}
	return v, nil
}

func (s *Store) ListVersions(ctx context.Context) ([]store.Version, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+versionColumns+` FROM dataset_versions ORDER BY date, id`)
	if err != nil {
		return nil, dbErr(err, "listing versions")
	}
	defer func() { _ = rows.Close() }()

	var out []store.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, dbErr(err, "scanning version")
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "iterating versions")
	}
	return out, nil
}

func (s *Store) CategoryVersions(ctx context.Context, categoryID int64) ([]store.Version, error) {
	q := `SELECT ` + versionColumns + ` FROM dataset_versions v
WHERE EXISTS (
	SELECT 1 FROM category_categories e
	WHERE e.version_id = v.id AND (e.narrower_id = ? OR e.broader_id = ?)
)
ORDER BY date, id`

	rows, err := s.db.QueryContext(ctx, s.Rebind(q), categoryID, categoryID)
	if err != nil {
		return nil, dbErr(err, "listing category versions", wkerr.Field("category_id", categoryID))
	}
	defer func() { _ = rows.Close() }()

	var out []store.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, dbErr(err, "scanning version")
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "iterating category versions")
	}
	return out, nil
}
