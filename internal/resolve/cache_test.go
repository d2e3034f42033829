// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package resolve_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wikicat/wikicat/internal/resolve"
)

func TestCache_GetPut(t *testing.T) {
	c := resolve.NewCache(10, 0.5)
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", 1)
	id, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)

	c.Put("a", 7)
	id, _ = c.Get("a")
	assert.Equal(t, int64(7), id)
	assert.Equal(t, 1, c.Len())
}

func TestCache_EvictionKeepsMostRecent(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		cut      float64
		wantKeep int
	}{
		{name: "half", limit: 10, cut: 0.5, wantKeep: 5},
		{name: "quarter cut", limit: 8, cut: 0.25, wantKeep: 6},
		{name: "cut everything", limit: 4, cut: 1, wantKeep: 0},
		{name: "no cut still frees a slot", limit: 4, cut: 0, wantKeep: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := resolve.NewCache(tt.limit, tt.cut)
			for i := 0; i < tt.limit; i++ {
				c.Put(fmt.Sprintf("n%d", i), int64(i))
			}
			assert.Equal(t, tt.limit, c.Len())
			assert.Zero(t, c.Evictions())

			c.Put("new", 100)
			assert.Equal(t, tt.wantKeep+1, c.Len())
			assert.Equal(t, int64(tt.limit-tt.wantKeep), c.Evictions())

			_, ok := c.Get("new")
			assert.True(t, ok)
			for i := 0; i < tt.limit; i++ {
				_, ok := c.Get(fmt.Sprintf("n%d", i))
				assert.Equal(t, i >= tt.limit-tt.wantKeep, ok, "n%d", i)
			}
		})
	}
}

func TestCache_UpdateKeepsAge(t *testing.T) {
	c := resolve.NewCache(4, 0.5)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)
	c.Put("d", 4)
	c.Put("a", 10)

	c.Put("e", 5)
	_, ok := c.Get("a")
	assert.False(t, ok, "updated entry keeps its original insertion age")
	_, ok = c.Get("d")
	assert.True(t, ok)
}

func TestCache_Disabled(t *testing.T) {
	c := resolve.NewCache(0, 0.5)
	assert.False(t, c.Enabled())
	c.Put("a", 1)
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}
