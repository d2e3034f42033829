// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package main

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/wikicat/wikicat/internal/graph"
	"github.com/wikicat/wikicat/internal/store"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

var (
	nodeHeader = []string{"version_id", "version_version", "version_date", "depth", "category_id", "category_name"}
	edgeHeader = []string{
		"version_id", "version_version", "version_date", "depth",
		"narrower_id", "narrower_name", "broader_id", "broader_name",
	}
)

func newSubtreeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtree ROOT",
		Short: "Export the categories below (or above) a root category as CSV",
		Long: `Walk the category graph breadth-first from ROOT in every selected
version and write one CSV row per category reached, or per edge followed
with --edges. ROOT is a category name as imported, e.g. Category:Mammals.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSubtree(cmd, args[0])
		},
	}

	f := cmd.Flags()
	f.Int("depth", -1, "levels to expand below the root (default: traversal.max_levels)")
	f.StringSlice("versions", nil, "version labels to export (default: all imported versions)")
	f.StringP("output", "o", "", "write CSV to this file instead of stdout")
	f.Bool("edges", false, "write one row per edge instead of per category")
	f.String("direction", "down", "follow subcategories (down) or supercategories (up)")
	f.Bool("no-dedup", false, "report a category again for every path that reaches it")

	return cmd
}

func (a *app) runSubtree(cmd *cobra.Command, rootName string) error {
	ctx := cmd.Context()
	f := cmd.Flags()
	depth, _ := f.GetInt("depth")
	labels, _ := f.GetStringSlice("versions")
	output, _ := f.GetString("output")
	edges, _ := f.GetBool("edges")
	dirName, _ := f.GetString("direction")
	noDedup, _ := f.GetBool("no-dedup")

	dir, err := graph.ParseDirection(dirName)
	if err != nil {
		return err
	}
	if depth < 0 {
		depth = a.cfg.Traversal.MaxLevels
	}

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

	w := cmd.OutOrStdout()
	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			return wkerr.Errorf(wkerr.CodeCLIOutputFailure, "creating %s: %w", output, err)
		}
		defer a.closeQuietly("output file", file)
		w = file
	}

	n, err := writeSubtree(ctx, w, graph.NewWalker(st), rootName, versions, subtreeOptions{
		direction: dir,
		depth:     depth,
		dedup:     !noDedup,
		edges:     edges,
	})
	if err != nil {
		return err
	}
	a.logger.Info("subtree exported", "root", rootName, "versions", len(versions), "rows", n)
	return nil
}

type subtreeOptions struct {
	direction graph.Direction
	depth     int
	dedup     bool
	edges     bool
}

// writeSubtree writes a header and the traversal of root in each version,
// returning the number of data rows.
func writeSubtree(ctx context.Context, w io.Writer, walker *graph.Walker, rootName string,
	versions []store.Version, opts subtreeOptions,
) (int, error) {
	root, err := walker.Root(ctx, rootName)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	header := nodeHeader
	if opts.edges {
		header = edgeHeader
	}
	if err := cw.Write(header); err != nil {
		return 0, wkerr.Errorf(wkerr.CodeCLIOutputFailure, "writing csv: %w", err)
	}

	rows := 0
	for _, v := range versions {
		gopts := graph.Options{
			Direction: opts.direction,
			MaxLevels: graph.MaxLevels(opts.depth),
			Dedup:     opts.dedup,
			Scope:     store.ScopeOf(v),
		}
		prefix := versionColumns(v)

		var n int
		if opts.edges {
			n, err = writeEdges(ctx, cw, walker.Edges(root, gopts), prefix)
		} else {
			n, err = writeNodes(ctx, cw, walker.Nodes(root, gopts), prefix)
		}
		rows += n
		if err != nil {
			return rows, wkerr.With(err, wkerr.Field("version", v.Label))
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, wkerr.Errorf(wkerr.CodeCLIOutputFailure, "writing csv: %w", err)
	}
	return rows, nil
}

func versionColumns(v store.Version) []string {
	date := ""
	if !v.Date.IsZero() {
		date = v.Date.Format(time.DateOnly)
	}
	return []string{strconv.FormatInt(v.ID, 10), v.Label, date}
}

func writeNodes(ctx context.Context, cw *csv.Writer, it *graph.NodeIterator, prefix []string) (int, error) {
	n := 0
	for it.Next(ctx) {
		c := it.Node()
		row := append(append([]string(nil), prefix...), strconv.Itoa(it.Level()), strconv.FormatInt(c.ID, 10), c.Name)
		if err := cw.Write(row); err != nil {
			return n, wkerr.Errorf(wkerr.CodeCLIOutputFailure, "writing csv: %w", err)
		}
		n++
	}
	return n, it.Err()
}

func writeEdges(ctx context.Context, cw *csv.Writer, it *graph.EdgeIterator, prefix []string) (int, error) {
	n := 0
	for it.Next(ctx) {
		e := it.Edge()
		row := append(append([]string(nil), prefix...),
			strconv.Itoa(it.Level()),
			strconv.FormatInt(e.Narrower.ID, 10), e.Narrower.Name,
			strconv.FormatInt(e.Broader.ID, 10), e.Broader.Name,
		)
		if err := cw.Write(row); err != nil {
			return n, wkerr.Errorf(wkerr.CodeCLIOutputFailure, "writing csv: %w", err)
		}
		n++
	}
	return n, it.Err()
}
