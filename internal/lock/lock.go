// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

// Package lock guards the delete-then-insert import of a (relation,
// version) pair so that only one writer runs it at a time.
package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

// Locker hands out exclusive leases on keys.
type Locker interface {
	// Acquire fails with a lock.acquire.conflict error when key is held.
	Acquire(ctx context.Context, key string) (Lease, error)
}

// Lease is a held lock.
type Lease interface {
	Key() string
	// Refresh extends a lease that expires; it is a no-op otherwise.
	Refresh(ctx context.Context) error
	Release(ctx context.Context) error
}

// ImportKey is the lock key of one relation import.
func ImportKey(table string, versionID int64) string {
	return fmt.Sprintf("wikicat:import:%s:%d", table, versionID)
}

func conflict(key string) error {
	return wkerr.New(wkerr.CodeLockAcquireConflict, "import already running", wkerr.Field("key", key))
}

// Local is an in-process Locker.
type Local struct {
	mu   sync.Mutex
	held map[string]string
}

// NewLocal returns an empty in-process Locker.
func NewLocal() *Local {
	return &Local{held: make(map[string]string)}
}

func (l *Local) Acquire(_ context.Context, key string) (Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, conflict(key)
	}
	token := uuid.NewString()
	l.held[key] = token
	return &localLease{owner: l, key: key, token: token}, nil
}

type localLease struct {
	owner *Local
	key   string
	token string
}

func (l *localLease) Key() string { return l.key }

func (l *localLease) Refresh(context.Context) error { return nil }

func (l *localLease) Release(context.Context) error {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()

	if l.owner.held[l.key] == l.token {
		delete(l.owner.held, l.key)
	}
	return nil
}
