// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package main

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/wikicat/wikicat/internal/dbpedia"
	"github.com/wikicat/wikicat/internal/loader"
	"github.com/wikicat/wikicat/internal/store"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load DBpedia category datasets into the store",
		Long: `Download (or reuse cached) DBpedia dump files and bulk load them.
Each dataset replaces the rows of its relation for the selected version.
Datasets are imported in catalog order so categories are named before
memberships reference them.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runImport(cmd)
		},
	}

	f := cmd.Flags()
	f.StringSlice("datasets", nil, "datasets to import (default: all)")
	f.StringSlice("versions", nil, "DBpedia versions (default: dbpedia.versions)")
	f.StringSlice("langs", nil, "languages (default: dbpedia.language)")
	f.String("file", "", "import a local .nt or .nt.bz2 file; requires a single dataset, version and language")
	f.Int("limit", 0, "stop each dataset after this many records (0: no limit)")
	f.Int("batch-size", 0, "rows per insert batch (default: import.batch_size)")
	a.bindFlag(cmd, "import.limit", "limit")
	a.bindFlag(cmd, "import.batch_size", "batch-size")

	return cmd
}

type importRun struct {
	resource dbpedia.Resource
	result   *loader.Result
}

func (a *app) runImport(cmd *cobra.Command) error {
	f := cmd.Flags()
	datasets, _ := f.GetStringSlice("datasets")
	versions, _ := f.GetStringSlice("versions")
	langs, _ := f.GetStringSlice("langs")
	file, _ := f.GetString("file")

	catalog, err := dbpedia.DefaultCatalog()
	if err != nil {
		return err
	}
	resources, err := a.selection(datasets, versions, langs, catalog).resources(catalog)
	if err != nil {
		return wkerr.With(err, wkerr.Field("datasets", datasets))
	}
	if file != "" && len(resources) != 1 {
		return wkerr.Errorf(wkerr.CodeCLIInputInvalid,
			"--file needs exactly one dataset, version and language, got %d combinations", len(resources))
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer a.closeQuietly("store", st)

	lb, err := a.openLock()
	if err != nil {
		return err
	}
	defer func() { _ = lb.close() }()

	ld := loader.New(st,
		loader.WithConfig(loader.Config{
			BatchSize:  a.cfg.Import.BatchSize,
			CacheLimit: a.cfg.Import.CacheLimit,
			CutFactor:  a.cfg.Import.CacheCutFactor,
			Limit:      a.cfg.Import.Limit,
		}),
		loader.WithLocker(lb.locker),
		loader.WithLogger(a.logger),
	)
	dl := a.downloader(catalog)

	var runs []importRun
	for _, r := range resources {
		res, err := a.importOne(cmd, st, ld, dl, catalog, r, file)
		if res != nil {
			runs = append(runs, importRun{resource: r, result: res})
		}
		if err != nil {
			_ = renderImport(cmd.OutOrStdout(), runs)
			return err
		}
	}
	return renderImport(cmd.OutOrStdout(), runs)
}

func (a *app) importOne(cmd *cobra.Command, st store.Store, ld *loader.Loader, dl *dbpedia.Downloader,
	catalog *dbpedia.Catalog, r dbpedia.Resource, file string,
) (*loader.Result, error) {
	ctx := cmd.Context()

	rel, err := loader.RelationByName(r.Dataset)
	if err != nil {
		return nil, err
	}
	release, err := catalog.Release(r.Version)
	if err != nil {
		return nil, err
	}
	v, err := st.EnsureVersion(ctx, r.Version, r.Language, release.ReleaseDate())
	if err != nil {
		return nil, err
	}

	path := file
	if path == "" {
		if path, err = dl.Fetch(ctx, r); err != nil {
			return nil, err
		}
	}
	src, err := openSource(path, r.Dataset)
	if err != nil {
		return nil, err
	}
	defer a.closeQuietly("dataset file", src)

	return ld.Import(ctx, rel, *v, src)
}

type recordSource interface {
	loader.Source
	io.Closer
}

// openSource reads compressed dumps as downloaded and plain N-Triples
// files as given.
func openSource(path, dataset string) (recordSource, error) {
	if strings.HasSuffix(path, ".bz2") {
		return dbpedia.OpenRecordSource(path, dataset)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, wkerr.Errorf(wkerr.CodeCLIInputInvalid, "opening %s: %w", path, err)
	}
	src, err := dbpedia.NewRecordSource(f, dataset)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return fileSource{RecordSource: src, f: f}, nil
}

type fileSource struct {
	*dbpedia.RecordSource
	f *os.File
}

func (s fileSource) Close() error {
	return s.f.Close()
}

func renderImport(w io.Writer, runs []importRun) error {
	if len(runs) == 0 {
		return nil
	}

	var summary, resolvers [][]string
	for _, run := range runs {
		res := run.result
		summary = append(summary, []string{
			run.resource.Dataset,
			run.resource.Version,
			run.resource.Language,
			strconv.FormatInt(res.Read, 10),
			strconv.FormatInt(res.Skipped, 10),
			strconv.FormatInt(res.Deleted, 10),
			strconv.FormatInt(res.Imported, 10),
			strconv.Itoa(res.Batches),
			res.Duration.Round(time.Millisecond).String(),
		})
		for _, rs := range res.Resolvers {
			resolvers = append(resolvers, []string{
				run.resource.Dataset,
				run.resource.Version,
				string(rs.Kind),
				strconv.FormatInt(rs.Lookups(), 10),
				strconv.FormatInt(rs.Hits, 10),
				strconv.FormatInt(rs.StoreHits, 10),
				strconv.FormatInt(rs.Created, 10),
				strconv.FormatInt(rs.Evictions, 10),
				strconv.Itoa(rs.CacheSize),
			})
		}
	}

	if err := renderTable(w, []string{"dataset", "version", "lang", "read", "skipped", "replaced", "imported", "batches", "took"}, summary); err != nil {
		return err
	}
	return renderTable(w, []string{"dataset", "version", "kind", "lookups", "cache hits", "store hits", "created", "evictions", "cached"}, resolvers)
}
