// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package sqlite

import (
	"github.com/wikicat/wikicat/internal/store"
)

// DefaultPath is used when the storage config names no database file.
const DefaultPath = "wikicat.db"

func init() {
	store.RegisterBackend("sqlite", newStore)
}

func newStore(cfg store.StorageConfig) (store.Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	return Open(path)
}
