// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/wikicat/wikicat/internal/dbpedia"
	"github.com/wikicat/wikicat/internal/lock"
	"github.com/wikicat/wikicat/internal/store"
	_ "github.com/wikicat/wikicat/internal/store/postgres"
	_ "github.com/wikicat/wikicat/internal/store/sqlite"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
	"github.com/wikicat/wikicat/pkg/health"
)

// openStore opens the configured backend and applies migrations.
func (a *app) openStore() (store.Store, error) {
	s, err := store.Open(a.cfg.StorageConfig())
	if err != nil {
		return nil, err
	}
	a.logger.Debug("store opened", "backend", a.cfg.Storage.Backend)
	return s, nil
}

// lockBackend is the configured import lock plus the probe /health and
// doctor use for it. close releases the backend connection.
type lockBackend struct {
	locker lock.Locker
	check  health.Check
	close  func() error
}

func (a *app) openLock() (*lockBackend, error) {
	switch a.cfg.Lock.Backend {
	case "redis":
		client, err := lock.Connect(a.cfg.Lock.RedisAddr, a.cfg.Lock.RedisPassword)
		if err != nil {
			return nil, err
		}
		r := lock.NewRedis(client, a.cfg.Lock.TTL)
		return &lockBackend{locker: r, check: r.Ping, close: r.Close}, nil
	default:
		return &lockBackend{locker: lock.NewLocal(), close: func() error { return nil }}, nil
	}
}

func (a *app) downloader(catalog *dbpedia.Catalog) *dbpedia.Downloader {
	return dbpedia.NewDownloader(a.cfg.DBpedia.CacheDir, catalog, dbpedia.WithDownloadLogger(a.logger))
}

// selection is the dataset/version/language cross product a batch
// command works on; empty flags fall back to the configuration.
type selection struct {
	datasets  []string
	versions  []string
	languages []string
}

func (a *app) selection(datasets, versions, languages []string, catalog *dbpedia.Catalog) selection {
	sel := selection{datasets: datasets, versions: versions, languages: languages}
	if len(sel.datasets) == 0 {
		sel.datasets = catalog.DatasetNames()
	}
	if len(sel.versions) == 0 {
		sel.versions = a.cfg.DBpedia.Versions
	}
	if len(sel.languages) == 0 {
		sel.languages = []string{a.cfg.DBpedia.Language}
	}
	return sel
}

func (s selection) resources(catalog *dbpedia.Catalog) ([]dbpedia.Resource, error) {
	return catalog.Resources(s.datasets, s.versions, s.languages)
}

// versionsByLabel restricts versions to the given labels, keeping the
// store's ordering. No labels selects every version.
func versionsByLabel(versions []store.Version, labels []string) ([]store.Version, error) {
	if len(labels) == 0 {
		return versions, nil
	}

	var out []store.Version
	var missing []string
	for _, label := range labels {
		found := false
		for _, v := range versions {
			if v.Label == label {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, label)
		}
	}
	if len(missing) > 0 {
		return nil, wkerr.Errorf(wkerr.CodeCLIInputInvalid, "unknown versions: %s (run 'wikicat versions')", strings.Join(missing, ", "))
	}
	for _, v := range versions {
		if slices.Contains(labels, v.Label) {
			out = append(out, v)
		}
	}
	return out, nil
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// renderTable writes rows as a bordered table.
func renderTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return wkerr.Errorf(wkerr.CodeCLIOutputFailure, "writing table: %w", err)
	}
	return nil
}

func (a *app) closeQuietly(what string, c io.Closer) {
	if err := c.Close(); err != nil {
		a.logger.Warn("closing "+what, "error", err)
	}
}
