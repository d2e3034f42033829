// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package store

import (
	"context"
	"io"
	"time"
)

// NodeStore resolves natural keys of one node kind to surrogate ids.
type NodeStore interface {
	// LookupNode returns ErrNotFound when no node carries name.
	LookupNode(ctx context.Context, kind NodeKind, name string) (int64, error)
	// FindNodes resolves the names that exist; missing names are absent
	// from the result.
	FindNodes(ctx context.Context, kind NodeKind, names []string) (map[string]int64, error)
	CreateNode(ctx context.Context, kind NodeKind, name string) (int64, error)
	// CreateNodes inserts every name with one multi-row statement per
	// chunk and reports the generated id of each.
	CreateNodes(ctx context.Context, kind NodeKind, names []string) (map[string]int64, error)
}

// ContiguousNodeCreator is implemented by backends whose multi-row insert
// assigns a contiguous id range. Callers derive the id of names[i] as
// base+i without reading the ids back.
type ContiguousNodeCreator interface {
	InsertNodesContiguous(ctx context.Context, kind NodeKind, names []string) (base int64, err error)
}

// EdgeReader serves the traversal queries over category_categories.
type EdgeReader interface {
	CategoryByName(ctx context.Context, name string) (*Category, error)
	// Neighbors returns every edge incident to ids on the side given by dir,
	// ordered by source id then edge id.
	Neighbors(ctx context.Context, ids []int64, dir Direction, scope Scope) ([]Edge, error)
}

// RowWriter replaces the rows of a versioned relation.
type RowWriter interface {
	DeleteVersion(ctx context.Context, table string, versionID int64) (int64, error)
	// InsertRows writes rows in a single transaction and reports how many
	// rows the store accepted.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}

// VersionStore manages the dataset_versions registry.
type VersionStore interface {
	EnsureVersion(ctx context.Context, label, language string, date time.Time) (*Version, error)
	GetVersion(ctx context.Context, id int64) (*Version, error)
	ListVersions(ctx context.Context) ([]Version, error)
}

// StatsStore exposes the conditional set updates behind stats propagation.
// Every method is scoped to one version and touches only rows whose target
// columns are still NULL, so repeated calls are idempotent.
type StatsStore interface {
	EnsureStats(ctx context.Context, versionID int64) (int64, error)
	ResetStats(ctx context.Context, versionID int64) (int64, error)
	ComputeImmediate(ctx context.Context, versionID int64) (int64, error)
	SetBaselines(ctx context.Context, versionID int64) (int64, error)
	// PropagatePass refreshes subcategories_reporting and resolves the
	// totals of every node whose children have all reported, in one
	// transaction. It returns the number of nodes resolved.
	PropagatePass(ctx context.Context, versionID int64) (int64, error)
	CountUnresolved(ctx context.Context, versionID int64) (int64, error)
	GetStats(ctx context.Context, categoryID, versionID int64) (*Stats, error)
}

// BrowseStore serves the read-only lookups of the HTTP API and CLI.
type BrowseStore interface {
	GetCategory(ctx context.Context, id int64) (*Category, error)
	Subcategories(ctx context.Context, categoryID int64, scope Scope) ([]Category, error)
	Supercategories(ctx context.Context, categoryID int64, scope Scope) ([]Category, error)
	CountArticles(ctx context.Context, categoryID int64, scope Scope) (int64, error)
	CategoryVersions(ctx context.Context, categoryID int64) ([]Version, error)
	SearchCategories(ctx context.Context, query string, limit int) ([]Category, error)
}

// Store is the full relational backend.
type Store interface {
	Ping(ctx context.Context) error
	NodeStore
	EdgeReader
	RowWriter
	VersionStore
	StatsStore
	BrowseStore
	io.Closer
}
