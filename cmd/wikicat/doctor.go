// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/wikicat/wikicat/internal/dbpedia"
	"golang.org/x/sys/unix"
)

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics",
		Long:  "Check configuration, database connectivity, the lock backend, the dataset cache and free disk space.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDoctor(cmd)
		},
	}
}

func (a *app) runDoctor(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	ctx := cmd.Context()

	checks := []struct {
		name string
		fn   func() string
	}{
		{"Binary", checkBinary},
		{"Platform", checkPlatform},
		{"Config", a.checkConfig},
		{"Storage", func() string { return a.checkStorage(ctx) }},
		{"Lock", func() string { return a.checkLock(ctx) }},
		{"Cache", a.checkCache},
		{"Disk Space", func() string { return checkDiskSpace(a.cfg.DBpedia.CacheDir) }},
	}

	for _, c := range checks {
		if _, err := fmt.Fprintf(w, "%-20s %s\n", c.name+":", c.fn()); err != nil {
			return err
		}
	}

	return nil
}

func checkBinary() string {
	return fmt.Sprintf("wikicat %s (%s/%s)", version, runtime.GOOS, runtime.GOARCH)
}

func checkPlatform() string {
	return fmt.Sprintf("%s/%s, Go %s", runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func (a *app) checkConfig() string {
	cfgFile := a.v.ConfigFileUsed()
	if cfgFile != "" {
		return fmt.Sprintf("loaded from %s", cfgFile)
	}
	return "using defaults (no config file found)"
}

func (a *app) checkStorage(ctx context.Context) string {
	st, err := a.openStore()
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	defer a.closeQuietly("store", st)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := st.Ping(ctx); err != nil {
		return fmt.Sprintf("unreachable: %s", err)
	}
	versions, err := st.ListVersions(ctx)
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	return fmt.Sprintf("%s ok, %d version(s) imported", a.cfg.Storage.Backend, len(versions))
}

func (a *app) checkLock(ctx context.Context) string {
	if a.cfg.Lock.Backend != "redis" {
		return "local (single process)"
	}
	lb, err := a.openLock()
	if err != nil {
		return fmt.Sprintf("redis at %s unreachable: %s", a.cfg.Lock.RedisAddr, err)
	}
	defer func() { _ = lb.close() }()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := lb.check(ctx); err != nil {
		return fmt.Sprintf("redis at %s unreachable: %s", a.cfg.Lock.RedisAddr, err)
	}
	return fmt.Sprintf("redis at %s ok", a.cfg.Lock.RedisAddr)
}

func (a *app) checkCache() string {
	dir := a.cfg.DBpedia.CacheDir
	catalog, err := dbpedia.DefaultCatalog()
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Sprintf("no cache directory at %s", dir)
	}

	var cached, total int
	dl := a.downloader(catalog)
	resources, err := catalog.Resources(catalog.DatasetNames(), catalog.VersionNames(), []string{a.cfg.DBpedia.Language})
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	for _, r := range resources {
		total++
		if dl.Cached(r) {
			cached++
		}
	}
	return fmt.Sprintf("%d of %d %s dump file(s) cached in %s", cached, total, a.cfg.DBpedia.Language, dir)
}

func checkDiskSpace(dir string) string {
	path := dir
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		parent := filepath.Dir(path)
		if parent == path {
			break
		}
		path = parent
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return fmt.Sprintf("unable to check: %s", err)
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	return formatBytes(availBytes) + " available"
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b uint64) string {
	const (
		gb = 1024 * 1024 * 1024
		mb = 1024 * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	default:
		return fmt.Sprintf("%d bytes", b)
	}
}
