// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikicat/wikicat/internal/store"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := store.Open(store.StorageConfig{Backend: "nonexistent"})
	require.Error(t, err)
	assert.True(t, wkerr.HasCode(err, wkerr.CodeStoreBackendUnsupported))
	assert.Equal(t, "nonexistent", wkerr.FieldsOf(err)["backend"])
}

func TestOpen_UsesRegisteredFactory(t *testing.T) {
	var got store.StorageConfig
	store.RegisterBackend("capture", func(cfg store.StorageConfig) (store.Store, error) {
		got = cfg
		return nil, errors.New("capture only")
	})

	_, err := store.Open(store.StorageConfig{Backend: "capture", DSN: "postgres://x"})
	require.Error(t, err)
	assert.Equal(t, "postgres://x", got.DSN)
	assert.Contains(t, store.Backends(), "capture")
}

// TestRegisterBackend_Concurrent verifies that RegisterBackend is goroutine-safe
// and can handle concurrent registrations without race conditions.
func TestRegisterBackend_Concurrent(t *testing.T) {
	const numGoroutines = 10
	const registrationsPerGoroutine = 10

	done := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(goroutineID int) {
			defer func() { done <- true }()
			for j := 0; j < registrationsPerGoroutine; j++ {
				name := fmt.Sprintf("backend-%d-%d", goroutineID, j)
				store.RegisterBackend(name, func(store.StorageConfig) (store.Store, error) {
					return nil, nil
				})
				_ = store.Backends()
			}
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		<-done
	}
}
