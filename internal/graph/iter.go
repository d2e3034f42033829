// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package graph

import (
	"context"

	"github.com/wikicat/wikicat/internal/store"
)

type visit struct {
	node  store.Category
	depth int
}

// markNew adds id to seen and reports whether it was absent. A nil seen
// set accepts everything.
func markNew(seen map[int64]struct{}, id int64) bool {
	if seen == nil {
		return true
	}
	if _, ok := seen[id]; ok {
		return false
	}
	seen[id] = struct{}{}
	return true
}

// NodeIterator yields one node per Next call. Usage mirrors sql.Rows:
//
//	it := w.Descendants(root, opts)
//	for it.Next(ctx) {
//		use(it.Node(), it.Level())
//	}
//	if err := it.Err(); err != nil { ... }
type NodeIterator struct {
	walker *Walker
	opts   Options
	queue  []visit
	seen   map[int64]struct{}
	cur    visit
	err    error
}

// Next advances to the next node. Each node is expanded as it is yielded,
// with one store query.
func (it *NodeIterator) Next(ctx context.Context) bool {
	if it.err != nil || len(it.queue) == 0 {
		return false
	}
	v := it.queue[0]
	it.queue = it.queue[1:]

	if it.opts.expands(v.depth) {
		edges, err := it.walker.expand(ctx, []int64{v.node.ID}, it.opts)
		if err != nil {
			it.err = err
			return false
		}
		for _, e := range edges {
			target := e.Target(it.opts.Direction)
			if markNew(it.seen, target.ID) {
				it.queue = append(it.queue, visit{node: target, depth: v.depth + 1})
			}
		}
	}

	it.cur = v
	return true
}

// Node returns the current node.
func (it *NodeIterator) Node() store.Category { return it.cur.node }

// Level returns the depth of the current node; the root is at 0.
func (it *NodeIterator) Level() int { return it.cur.depth }

// Err returns the error that stopped the iteration, if any.
func (it *NodeIterator) Err() error { return it.err }

// LevelIterator yields one frontier per Next call. The frontier at depth d+1
// is fetched with a single store query covering every node of depth d.
type LevelIterator struct {
	walker   *Walker
	opts     Options
	seen     map[int64]struct{}
	frontier []store.Category
	next     []store.Category
	level    int
	err      error
}

// Next advances to the next frontier.
func (it *LevelIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	if it.level >= 0 {
		if !it.opts.expands(it.level) {
			return false
		}
		next, err := it.expand(ctx)
		if err != nil {
			it.err = err
			return false
		}
		it.next = next
	}
	if len(it.next) == 0 {
		return false
	}
	it.frontier, it.next = it.next, nil
	it.level++
	return true
}

func (it *LevelIterator) expand(ctx context.Context) ([]store.Category, error) {
	ids := make([]int64, 0, len(it.frontier))
	bySource := make(map[int64][]store.Category, len(it.frontier))
	for _, c := range it.frontier {
		if _, ok := bySource[c.ID]; !ok {
			bySource[c.ID] = nil
			ids = append(ids, c.ID)
		}
	}

	edges, err := it.walker.expand(ctx, ids, it.opts)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		src := e.Source(it.opts.Direction).ID
		bySource[src] = append(bySource[src], e.Target(it.opts.Direction))
	}

	// Walk the frontier in order, once per occurrence, so that without
	// dedup a node reached by k paths appears k times.
	var next []store.Category
	for _, c := range it.frontier {
		for _, target := range bySource[c.ID] {
			if markNew(it.seen, target.ID) {
				next = append(next, target)
			}
		}
	}
	return next, nil
}

// Frontier returns the nodes first reached at the current level.
func (it *LevelIterator) Frontier() []store.Category { return it.frontier }

// Level returns the depth of the current frontier; the root is at 0.
func (it *LevelIterator) Level() int { return it.level }

// Err returns the error that stopped the iteration, if any.
func (it *LevelIterator) Err() error { return it.err }

// EdgeIterator yields the edges followed by a node traversal. With Dedup
// each node is expanded once, so every edge of the reachable subgraph
// within the bound is yielded exactly once.
type EdgeIterator struct {
	walker  *Walker
	opts    Options
	queue   []visit
	seen    map[int64]struct{}
	pending []store.Edge
	depth   int
	cur     store.Edge
	err     error
}

// Next advances to the next edge.
func (it *EdgeIterator) Next(ctx context.Context) bool {
	for len(it.pending) == 0 {
		if it.err != nil || len(it.queue) == 0 {
			return false
		}
		v := it.queue[0]
		it.queue = it.queue[1:]
		if !it.opts.expands(v.depth) {
			continue
		}

		edges, err := it.walker.expand(ctx, []int64{v.node.ID}, it.opts)
		if err != nil {
			it.err = err
			return false
		}
		for _, e := range edges {
			target := e.Target(it.opts.Direction)
			if markNew(it.seen, target.ID) {
				it.queue = append(it.queue, visit{node: target, depth: v.depth + 1})
			}
		}
		it.pending = edges
		it.depth = v.depth + 1
	}

	it.cur = it.pending[0]
	it.pending = it.pending[1:]
	return true
}

// Edge returns the current edge.
func (it *EdgeIterator) Edge() store.Edge { return it.cur }

// Level returns the depth of the current edge's far endpoint.
func (it *EdgeIterator) Level() int { return it.depth }

// Err returns the error that stopped the iteration, if any.
func (it *EdgeIterator) Err() error { return it.err }
