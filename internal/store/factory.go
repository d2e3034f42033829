// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package store

import (
	"sort"
	"sync"

	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

// Factory opens a Store for the given configuration.
type Factory func(cfg StorageConfig) (Store, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers the factory of a named storage backend.
// Backend packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Backends lists the registered backend names.
func Backends() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveBackend returns the effective backend name, defaulting to "sqlite".
func resolveBackend(cfg StorageConfig) string {
	if cfg.Backend == "" {
		return "sqlite"
	}
	return cfg.Backend
}

// Open creates the store of the configured backend and applies its
// migrations.
func Open(cfg StorageConfig) (Store, error) {
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, wkerr.New(wkerr.CodeStoreBackendUnsupported, "unsupported storage backend",
			wkerr.Field("backend", backend))
	}

	return factory(cfg)
}
