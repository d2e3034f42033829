// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/wikicat/wikicat/internal/stats"
)

func newStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Compute per-category subtree statistics",
		Long: `Fill category_stats for each selected version: immediate counts first,
then subtree totals propagated bottom-up for a bounded number of passes.
Categories left unresolved are reported as warnings; running again with
more passes resumes where the previous run stopped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runStats(cmd)
		},
	}

	f := cmd.Flags()
	f.Int("passes", 0, "propagation passes per version (default: stats.passes)")
	f.Bool("reset", false, "discard computed stats before propagating")
	f.StringSlice("versions", nil, "version labels to process (default: all imported versions)")
	a.bindFlag(cmd, "stats.passes", "passes")

	return cmd
}

func (a *app) runStats(cmd *cobra.Command) error {
	ctx := cmd.Context()
	reset, _ := cmd.Flags().GetBool("reset")
	labels, _ := cmd.Flags().GetStringSlice("versions")

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer a.closeQuietly("store", st)

	all, err := st.ListVersions(ctx)
	if err != nil {
		return err
	}
	versions, err := versionsByLabel(all, labels)
	if err != nil {
		return err
	}

	p := stats.New(st, stats.WithLogger(a.logger))
	reports, err := p.RunAll(ctx, versions, stats.Options{Passes: a.cfg.Stats.Passes, Reset: reset})
	if rerr := renderStats(cmd, reports); rerr != nil && err == nil {
		err = rerr
	}
	return err
}

func renderStats(cmd *cobra.Command, reports []*stats.Report) error {
	out := cmd.OutOrStdout()
	if len(reports) == 0 {
		_, _ = fmt.Fprintln(out, "No versions imported.")
		return nil
	}

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		var resolved int64
		for _, n := range r.Resolved {
			resolved += n
		}
		status := "converged"
		if !r.Converged() {
			status = "incomplete"
		}
		rows = append(rows, []string{
			r.Version.Label,
			r.Version.Language,
			strconv.FormatInt(r.Immediate, 10),
			strconv.FormatInt(r.Baselines, 10),
			strconv.Itoa(len(r.Resolved)),
			strconv.FormatInt(resolved, 10),
			strconv.FormatInt(r.Unresolved, 10),
			status,
			r.Duration.Round(time.Millisecond).String(),
		})
	}
	if err := renderTable(out, []string{"version", "lang", "counted", "leaves", "passes", "resolved", "unresolved", "status", "took"}, rows); err != nil {
		return err
	}

	for _, r := range reports {
		if r.Warning != nil {
			_, _ = fmt.Fprintf(out, "warning: %s\n", r.Warning)
		}
	}
	return nil
}
