// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package dbpedia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/wikicat/wikicat/internal/metrics"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// DefaultCacheDir is where downloads are kept unless configured otherwise.
const DefaultCacheDir = ".dbpedia_cache"

// Downloader fetches dataset files once and serves them from a local cache
// laid out as <dir>/<version>/<language>/<format>/<dataset>.bz2.
type Downloader struct {
	dir     string
	catalog *Catalog
	client  *http.Client
	logger  *slog.Logger
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) {
		d.client = c
	}
}

// WithDownloadLogger sets the logger.
func WithDownloadLogger(l *slog.Logger) DownloaderOption {
	return func(d *Downloader) {
		d.logger = l
	}
}

// NewDownloader creates a Downloader caching under dir.
func NewDownloader(dir string, catalog *Catalog, opts ...DownloaderOption) *Downloader {
	if dir == "" {
		dir = DefaultCacheDir
	}
	d := &Downloader{
		dir:     dir,
		catalog: catalog,
		client:  &http.Client{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Path returns the cache location of r.
func (d *Downloader) Path(r Resource) string {
	return filepath.Join(d.dir, r.Version, r.Language, r.Format, r.Dataset+".bz2")
}

// Cached reports whether r is already downloaded.
func (d *Downloader) Cached(r Resource) bool {
	info, err := os.Stat(d.Path(r))
	return err == nil && info.Mode().IsRegular()
}

// Fetch returns the local path of r, downloading it first when needed. A
// download is written to a temporary file and renamed into place, so a
// cached file is always complete.
func (d *Downloader) Fetch(ctx context.Context, r Resource) (string, error) {
	path := d.Path(r)
	if d.Cached(r) {
		d.logger.Debug("using cached file", "resource", r.String(), "path", path)
		return path, nil
	}

	url, err := d.catalog.URL(r)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", wkerr.Wrap(err, wkerr.CodeDownloadCacheFailure, "creating cache directory", wkerr.Field("path", path))
	}

	d.logger.Info("downloading", "resource", r.String(), "url", url)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", wkerr.Wrap(err, wkerr.CodeDownloadUpstreamFailure, "building request", wkerr.Field("url", url))
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", wkerr.Wrap(err, wkerr.CodeDownloadUpstreamFailure, "requesting dataset", wkerr.Field("url", url))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", wkerr.New(wkerr.CodeDownloadUpstreamFailure, "unexpected status",
			wkerr.Field("url", url), wkerr.Field("status", resp.StatusCode))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return "", wkerr.Wrap(err, wkerr.CodeDownloadCacheFailure, "creating temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", wkerr.Wrap(err, wkerr.CodeDownloadUpstreamFailure, "writing dataset", wkerr.Field("url", url))
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", wkerr.Wrap(err, wkerr.CodeDownloadCacheFailure, "moving download into cache", wkerr.Field("path", path))
	}

	elapsed := time.Since(start)
	metrics.DownloadBytes.WithLabelValues(r.Dataset).Add(float64(n))
	d.logger.Info("downloaded",
		"resource", r.String(),
		"size", humanBytes(float64(n)),
		"duration", elapsed,
		"rate", humanBytes(float64(n)/max(elapsed.Seconds(), 1e-3))+"/s",
	)
	return path, nil
}

// FetchAll downloads resources with at most concurrency transfers in
// flight. Paths are returned in the order of resources.
func (d *Downloader) FetchAll(ctx context.Context, resources []Resource, concurrency int) ([]string, error) {
	paths := make([]string, len(resources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	for i, r := range resources {
		g.Go(func() error {
			path, err := d.Fetch(gctx, r)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// Clean removes the cached file of r.
func (d *Downloader) Clean(r Resource) error {
	path := d.Path(r)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return wkerr.Wrap(err, wkerr.CodeDownloadCacheFailure, "removing cached file", wkerr.Field("path", path))
	}
	d.logger.Info("cleaned cache", "resource", r.String(), "path", path)
	return nil
}

// CleanAll removes the whole cache directory.
func (d *Downloader) CleanAll() error {
	if err := os.RemoveAll(d.dir); err != nil {
		return wkerr.Wrap(err, wkerr.CodeDownloadCacheFailure, "removing cache", wkerr.Field("path", d.dir))
	}
	return nil
}

func humanBytes(n float64) string {
	for _, unit := range []string{"bytes", "KB", "MB", "GB"} {
		if n < 1024 {
			return fmt.Sprintf("%3.1f %s", n, unit)
		}
		n /= 1024
	}
	return fmt.Sprintf("%3.1f TB", n)
}
