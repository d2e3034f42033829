// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

// Package graph walks one version of the category graph breadth first.
// Every expansion is a filtered edge query against the store; no
// adjacency is held in memory beyond the BFS queue and seen-set.
//
// The graph is a multigraph that may contain self-loops and cycles.
// Without Dedup and without MaxLevels a cyclic graph is walked forever;
// bounding the walk is the caller's job.
package graph

import (
	"context"
	"log/slog"
	"strings"

	"github.com/wikicat/wikicat/internal/metrics"
	"github.com/wikicat/wikicat/internal/store"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

// Direction selects which way edges are followed.
type Direction = store.Direction

const (
	Down = store.Down
	Up   = store.Up
)

// ParseDirection accepts "down" and "up".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "down":
		return Down, nil
	case "up":
		return Up, nil
	default:
		return Down, wkerr.New(wkerr.CodeGraphDirectionInvalid, "unknown direction", wkerr.Field("direction", s))
	}
}

// Options controls a traversal.
type Options struct {
	Direction Direction
	// MaxLevels bounds the depth; nodes at the bound are yielded but not
	// expanded. Nil means unbounded.
	MaxLevels *int
	// Dedup yields every reachable node once, at its shortest depth.
	Dedup bool
	Scope store.Scope
}

// MaxLevels returns a depth bound for Options.MaxLevels.
func MaxLevels(n int) *int {
	return &n
}

func (o Options) validate() error {
	if o.Direction != Down && o.Direction != Up {
		return wkerr.New(wkerr.CodeGraphDirectionInvalid, "unknown direction", wkerr.Field("direction", o.Direction.String()))
	}
	if o.MaxLevels != nil && *o.MaxLevels < 0 {
		return wkerr.New(wkerr.CodeGraphOptionsInvalid, "max levels must not be negative", wkerr.Field("max_levels", *o.MaxLevels))
	}
	return nil
}

func (o Options) expands(depth int) bool {
	return o.MaxLevels == nil || depth < *o.MaxLevels
}

// Walker starts traversals over an edge store.
type Walker struct {
	edges  store.EdgeReader
	logger *slog.Logger
}

// NewWalker returns a Walker reading from edges.
func NewWalker(edges store.EdgeReader) *Walker {
	return &Walker{edges: edges, logger: slog.Default()}
}

// Root looks up the category a traversal starts from.
func (w *Walker) Root(ctx context.Context, name string) (store.Category, error) {
	c, err := w.edges.CategoryByName(ctx, name)
	if err != nil {
		if wkerr.IsNotFound(err) {
			return store.Category{}, wkerr.New(wkerr.CodeGraphRootNotFound, "root category not found", wkerr.FieldCategory(name))
		}
		return store.Category{}, err
	}
	return *c, nil
}

// expand returns the edges leaving ids in the traversal direction.
func (w *Walker) expand(ctx context.Context, ids []int64, opts Options) ([]store.Edge, error) {
	metrics.TraversalExpansions.WithLabelValues(opts.Direction.String()).Inc()
	w.logger.Debug("expanding frontier", "direction", opts.Direction, "nodes", len(ids), "version_id", opts.Scope.VersionID)
	return w.edges.Neighbors(ctx, ids, opts.Direction, opts.Scope)
}

// Nodes iterates nodes from root in BFS order.
func (w *Walker) Nodes(root store.Category, opts Options) *NodeIterator {
	it := &NodeIterator{walker: w, opts: opts, err: opts.validate()}
	it.queue = []visit{{node: root}}
	if opts.Dedup {
		it.seen = map[int64]struct{}{root.ID: {}}
	}
	return it
}

// Levels iterates whole frontiers from root.
func (w *Walker) Levels(root store.Category, opts Options) *LevelIterator {
	it := &LevelIterator{walker: w, opts: opts, err: opts.validate(), level: -1}
	it.next = []store.Category{root}
	if opts.Dedup {
		it.seen = map[int64]struct{}{root.ID: {}}
	}
	return it
}

// Edges iterates the edges a node traversal from root follows.
func (w *Walker) Edges(root store.Category, opts Options) *EdgeIterator {
	it := &EdgeIterator{walker: w, opts: opts, err: opts.validate()}
	it.queue = []visit{{node: root}}
	if opts.Dedup {
		it.seen = map[int64]struct{}{root.ID: {}}
	}
	return it
}

// Descendants iterates the narrower categories under root, root included.
func (w *Walker) Descendants(root store.Category, opts Options) *NodeIterator {
	opts.Direction = Down
	return w.Nodes(root, opts)
}

// Ancestors iterates the broader categories above root, root included.
func (w *Walker) Ancestors(root store.Category, opts Options) *NodeIterator {
	opts.Direction = Up
	return w.Nodes(root, opts)
}

// DescendantLevels iterates the frontiers under root.
func (w *Walker) DescendantLevels(root store.Category, opts Options) *LevelIterator {
	opts.Direction = Down
	return w.Levels(root, opts)
}

// AncestorLevels iterates the frontiers above root.
func (w *Walker) AncestorLevels(root store.Category, opts Options) *LevelIterator {
	opts.Direction = Up
	return w.Levels(root, opts)
}

// DescendantEdges iterates the edges of the subgraph under root.
func (w *Walker) DescendantEdges(root store.Category, opts Options) *EdgeIterator {
	opts.Direction = Down
	return w.Edges(root, opts)
}

// AncestorEdges iterates the edges of the subgraph above root.
func (w *Walker) AncestorEdges(root store.Category, opts Options) *EdgeIterator {
	opts.Direction = Up
	return w.Edges(root, opts)
}

// CollectNodes drains it.
func CollectNodes(ctx context.Context, it *NodeIterator) ([]store.Category, error) {
	var out []store.Category
	for it.Next(ctx) {
		out = append(out, it.Node())
	}
	return out, it.Err()
}

// CollectLevels drains it.
func CollectLevels(ctx context.Context, it *LevelIterator) ([][]store.Category, error) {
	var out [][]store.Category
	for it.Next(ctx) {
		out = append(out, it.Frontier())
	}
	return out, it.Err()
}

// CollectEdges drains it.
func CollectEdges(ctx context.Context, it *EdgeIterator) ([]store.Edge, error) {
	var out []store.Edge
	for it.Next(ctx) {
		out = append(out, it.Edge())
	}
	return out, it.Err()
}
