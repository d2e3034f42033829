// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/wikicat/wikicat/internal/dbpedia"
)

func newVersionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List imported dataset versions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if catalog, _ := cmd.Flags().GetBool("catalog"); catalog {
				return a.runCatalog(cmd)
			}
			return a.runVersions(cmd)
		},
	}
	cmd.Flags().Bool("catalog", false, "list the DBpedia releases known to the downloader instead")
	return cmd
}

func (a *app) runVersions(cmd *cobra.Command) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer a.closeQuietly("store", st)

	versions, err := st.ListVersions(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(versions) == 0 {
		_, _ = fmt.Fprintln(out, "No versions imported.")
		return nil
	}

	rows := make([][]string, len(versions))
	for i, v := range versions {
		date := ""
		if !v.Date.IsZero() {
			date = v.Date.Format(time.DateOnly)
		}
		rows[i] = []string{strconv.FormatInt(v.ID, 10), v.Label, v.Language, date}
	}
	return renderTable(out, []string{"id", "version", "lang", "date"}, rows)
}

func (a *app) runCatalog(cmd *cobra.Command) error {
	catalog, err := dbpedia.DefaultCatalog()
	if err != nil {
		return err
	}
	dl := a.downloader(catalog)

	rows := make([][]string, 0, len(catalog.Versions))
	for _, rel := range catalog.Versions {
		cached := 0
		for _, ds := range catalog.DatasetNames() {
			r, err := catalog.Resource(ds, rel.Name, a.cfg.DBpedia.Language)
			if err == nil && dl.Cached(r) {
				cached++
			}
		}
		rows = append(rows, []string{rel.Name, rel.Date, fmt.Sprintf("%d/%d", cached, len(catalog.Datasets))})
	}
	return renderTable(cmd.OutOrStdout(), []string{"version", "date", "cached (" + a.cfg.DBpedia.Language + ")"}, rows)
}
