// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wikicat/wikicat/internal/dbpedia"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

func newFetchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download DBpedia dump files into the local cache",
		Long:  "Download the selected dataset files without importing them. Files already in the cache are kept.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runFetch(cmd)
		},
	}

	f := cmd.Flags()
	f.StringSlice("datasets", nil, "datasets to fetch (default: all)")
	f.StringSlice("versions", nil, "DBpedia versions (default: dbpedia.versions)")
	f.StringSlice("langs", nil, "languages (default: dbpedia.language)")
	f.Int("concurrency", 0, "parallel downloads (default: dbpedia.fetch_concurrency)")
	f.Bool("clean", false, "remove the selected files from the cache instead of downloading")
	a.bindFlag(cmd, "dbpedia.fetch_concurrency", "concurrency")

	return cmd
}

func (a *app) runFetch(cmd *cobra.Command) error {
	f := cmd.Flags()
	datasets, _ := f.GetStringSlice("datasets")
	versions, _ := f.GetStringSlice("versions")
	langs, _ := f.GetStringSlice("langs")
	clean, _ := f.GetBool("clean")

	catalog, err := dbpedia.DefaultCatalog()
	if err != nil {
		return err
	}
	resources, err := a.selection(datasets, versions, langs, catalog).resources(catalog)
	if err != nil {
		return wkerr.With(err, wkerr.Field("datasets", datasets))
	}
	dl := a.downloader(catalog)
	out := cmd.OutOrStdout()

	if clean {
		for _, r := range resources {
			if err := dl.Clean(r); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "removed %s\n", dl.Path(r))
		}
		return nil
	}

	paths, err := dl.FetchAll(cmd.Context(), resources, a.cfg.DBpedia.FetchConcurrency)
	if err != nil {
		return err
	}
	for i, r := range resources {
		_, _ = fmt.Fprintf(out, "%-40s %s\n", r.String(), paths[i])
	}
	return nil
}
