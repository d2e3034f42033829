// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package resolve

import "math"

// Default cache sizing used by the loader.
const (
	DefaultCacheLimit = 2000
	DefaultCutFactor  = 0.5
)

type entry struct {
	id  int64
	seq uint64
}

// Cache is a bounded name -> id memo. Entries are tagged with their
// insertion sequence; once the cache is full, the oldest insertions are
// dropped in one sweep and only the most recent ones are kept. Reads do no
// bookkeeping.
//
// A Cache is owned by one import job and is not safe for concurrent use.
type Cache struct {
	limit     int
	keep      int
	entries   map[string]entry
	next      uint64
	evictions int64
}

// NewCache returns a cache holding at most limit entries. When full it keeps
// floor(limit*(1-cut)) of the most recently inserted names. A limit of 0
// disables caching.
func NewCache(limit int, cut float64) *Cache {
	if limit < 0 {
		limit = 0
	}
	if cut < 0 || cut > 1 || math.IsNaN(cut) {
		cut = DefaultCutFactor
	}
	keep := int(math.Floor(float64(limit) * (1 - cut)))
	if keep >= limit {
		keep = limit - 1
	}
	return &Cache{
		limit:   limit,
		keep:    max(keep, 0),
		entries: make(map[string]entry),
	}
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c.limit > 0
}

// Get returns the cached id of name.
func (c *Cache) Get(name string) (int64, bool) {
	e, ok := c.entries[name]
	return e.id, ok
}

// Put records id for name. Re-putting a cached name updates its id without
// changing its age.
func (c *Cache) Put(name string, id int64) {
	if c.limit == 0 {
		return
	}
	if e, ok := c.entries[name]; ok {
		e.id = id
		c.entries[name] = e
		return
	}
	if len(c.entries) >= c.limit {
		c.evict()
	}
	c.entries[name] = entry{id: id, seq: c.next}
	c.next++
}

// evict keeps the c.keep most recent insertions. Sequence numbers of live
// entries are contiguous, so a single threshold selects them.
func (c *Cache) evict() {
	threshold := c.next - uint64(c.keep)
	for name, e := range c.entries {
		if e.seq < threshold {
			delete(c.entries, name)
			c.evictions++
		}
	}
}

// Len returns the number of cached names.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Evictions returns how many entries have been dropped so far.
func (c *Cache) Evictions() int64 {
	return c.evictions
}
