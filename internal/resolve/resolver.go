// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

// Package resolve turns natural-key names into surrogate node ids, creating
// nodes on first reference.
package resolve

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wikicat/wikicat/internal/metrics"
	"github.com/wikicat/wikicat/internal/store"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

// Stats reports how a resolver's lookups were answered.
type Stats struct {
	Kind      store.NodeKind `json:"kind"`
	Hits      int64          `json:"hits"`
	StoreHits int64          `json:"store_hits"`
	Created   int64          `json:"created"`
	Evictions int64          `json:"evictions"`
	CacheSize int            `json:"cache_size"`
}

// Lookups is the total number of names resolved.
func (s Stats) Lookups() int64 {
	return s.Hits + s.StoreHits + s.Created
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache sets the cache capacity and cut factor.
func WithCache(limit int, cut float64) Option {
	return func(r *Resolver) {
		r.cache = NewCache(limit, cut)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// Resolver resolves names of one node kind. It works either one name at a
// time (Resolve) or batched (Want, then Flush).
type Resolver struct {
	kind   store.NodeKind
	nodes  store.NodeStore
	cache  *Cache
	logger *slog.Logger

	pending map[string]struct{}
	order   []string

	hits, storeHits, created int64
	reportedEvictions        int64
}

// New creates a resolver for kind backed by nodes.
func New(kind store.NodeKind, nodes store.NodeStore, opts ...Option) *Resolver {
	r := &Resolver{
		kind:    kind,
		nodes:   nodes,
		cache:   NewCache(DefaultCacheLimit, DefaultCutFactor),
		logger:  slog.Default(),
		pending: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Kind returns the node kind this resolver serves.
func (r *Resolver) Kind() store.NodeKind {
	return r.kind
}

func (r *Resolver) checkName(name string) error {
	if name == "" {
		return wkerr.New(wkerr.CodeResolveNameInvalid, "empty name", wkerr.Field("kind", string(r.kind)))
	}
	return nil
}

// Resolve returns the id of name: from the cache, else from the store, else
// by creating the node.
func (r *Resolver) Resolve(ctx context.Context, name string) (int64, error) {
	if err := r.checkName(name); err != nil {
		return 0, err
	}
	if id, ok := r.cache.Get(name); ok {
		r.count(metrics.OutcomeHit, 1)
		return id, nil
	}

	id, err := r.nodes.LookupNode(ctx, r.kind, name)
	switch {
	case err == nil:
		r.count(metrics.OutcomeStoreHit, 1)
	case errors.Is(err, store.ErrNotFound):
		id, err = r.nodes.CreateNode(ctx, r.kind, name)
		if err != nil {
			return 0, err
		}
		r.count(metrics.OutcomeCreated, 1)
	default:
		return 0, err
	}

	r.put(name, id)
	return id, nil
}

// Want returns the cached id of name, or queues name for the next Flush.
// A name already queued counts as a hit, as it would after a Resolve.
func (r *Resolver) Want(name string) (int64, bool) {
	if id, ok := r.cache.Get(name); ok {
		r.count(metrics.OutcomeHit, 1)
		return id, true
	}
	if name == "" {
		return 0, false
	}
	if _, ok := r.pending[name]; ok {
		r.count(metrics.OutcomeHit, 1)
		return 0, false
	}
	r.pending[name] = struct{}{}
	r.order = append(r.order, name)
	return 0, false
}

// Pending returns the number of queued names.
func (r *Resolver) Pending() int {
	return len(r.order)
}

// Flush resolves every queued name with one existence query and creates
// the rest with one multi-row insert. The returned map covers every name
// queued since the last Flush, regardless of later cache evictions.
func (r *Resolver) Flush(ctx context.Context) (map[string]int64, error) {
	if len(r.order) == 0 {
		return map[string]int64{}, nil
	}
	names := r.order

	ids, err := r.nodes.FindNodes(ctx, r.kind, names)
	if err != nil {
		return nil, err
	}
	found := len(ids)

	missing := make([]string, 0, len(names)-found)
	for _, name := range names {
		if _, ok := ids[name]; !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		created, err := r.create(ctx, missing)
		if err != nil {
			return nil, err
		}
		for name, id := range created {
			ids[name] = id
		}
	}

	r.count(metrics.OutcomeStoreHit, int64(found))
	r.count(metrics.OutcomeCreated, int64(len(missing)))
	for _, name := range names {
		r.put(name, ids[name])
	}

	r.logger.Debug("resolver flushed",
		"kind", r.kind,
		"names", len(names),
		"found", found,
		"created", len(missing),
	)

	r.pending = make(map[string]struct{})
	r.order = nil
	return ids, nil
}

// create inserts names, deriving ids from a contiguous base only when the
// store guarantees one.
func (r *Resolver) create(ctx context.Context, names []string) (map[string]int64, error) {
	creator, ok := r.nodes.(store.ContiguousNodeCreator)
	if !ok {
		created, err := r.nodes.CreateNodes(ctx, r.kind, names)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if _, ok := created[name]; !ok {
				return nil, wkerr.New(wkerr.CodeStoreDatabaseFailure, "created node missing from result",
					wkerr.Field("kind", string(r.kind)), wkerr.Field("name", name))
			}
		}
		return created, nil
	}

	base, err := creator.InsertNodesContiguous(ctx, r.kind, names)
	if err != nil {
		return nil, err
	}
	created := make(map[string]int64, len(names))
	for i, name := range names {
		created[name] = base + int64(i)
	}
	return created, nil
}

func (r *Resolver) put(name string, id int64) {
	r.cache.Put(name, id)
	if ev := r.cache.Evictions(); ev > r.reportedEvictions {
		metrics.CacheEvictions.WithLabelValues(string(r.kind)).Add(float64(ev - r.reportedEvictions))
		r.logger.Debug("resolver cache evicted", "kind", r.kind, "evicted", ev-r.reportedEvictions, "size", r.cache.Len())
		r.reportedEvictions = ev
	}
}

func (r *Resolver) count(outcome string, n int64) {
	if n == 0 {
		return
	}
	switch outcome {
	case metrics.OutcomeHit:
		r.hits += n
	case metrics.OutcomeStoreHit:
		r.storeHits += n
	case metrics.OutcomeCreated:
		r.created += n
	}
	metrics.ResolverLookups.WithLabelValues(string(r.kind), outcome).Add(float64(n))
}

// Stats returns the resolver's counters.
func (r *Resolver) Stats() Stats {
	return Stats{
		Kind:      r.kind,
		Hits:      r.hits,
		StoreHits: r.storeHits,
		Created:   r.created,
		Evictions: r.cache.Evictions(),
		CacheSize: r.cache.Len(),
	}
}
