// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package store

import (
	"fmt"
	"time"
)

// NodeKind names a natural-key table.
type NodeKind string

const (
	KindCategory NodeKind = "category"
	KindArticle  NodeKind = "article"
)

// Table returns the relation holding nodes of this kind.
func (k NodeKind) Table() (string, error) {
	switch k {
	case KindCategory:
		return "categories", nil
	case KindArticle:
		return "articles", nil
	default:
		return "", fmt.Errorf("%w: node kind %q", ErrInvalidInput, string(k))
	}
}

// Direction selects which endpoint of an edge a traversal expands from.
type Direction int

const (
	// Down expands a broader category into its narrower ones.
	Down Direction = iota
	// Up expands a narrower category into its broader ones.
	Up
)

func (d Direction) String() string {
	switch d {
	case Down:
		return "down"
	case Up:
		return "up"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Scope restricts edge, membership and stats queries to one version.
// The zero value is unscoped and is accepted only by read paths.
type Scope struct {
	VersionID int64
}

// ScopeOf scopes queries to v.
func ScopeOf(v Version) Scope {
	return Scope{VersionID: v.ID}
}

// Unscoped reports whether s spans every version.
func (s Scope) Unscoped() bool {
	return s.VersionID == 0
}

// --- Node types ---

// Category is a node of the category graph, shared across versions.
type Category struct {
	ID   int64
	Name string
}

// Article is a leaf entity attached to categories by membership.
type Article struct {
	ID   int64
	Name string
}

// Version is one dataset release. Versions order by Date.
type Version struct {
	ID       int64
	Label    string
	Language string
	Date     time.Time
}

// --- Versioned relations ---

// Edge is a directed narrower -> broader relation owned by one version.
// Duplicates, self-loops and cycles are all permitted.
type Edge struct {
	ID        int64
	Narrower  Category
	Broader   Category
	VersionID int64
}

// Source returns the endpoint the edge was reached from when expanding in dir.
func (e Edge) Source(dir Direction) Category {
	if dir == Up {
		return e.Narrower
	}
	return e.Broader
}

// Target returns the endpoint the edge leads to when expanding in dir.
func (e Edge) Target(dir Direction) Category {
	if dir == Up {
		return e.Broader
	}
	return e.Narrower
}

// IsSelfLoop reports whether both endpoints are the same category.
func (e Edge) IsSelfLoop() bool {
	return e.Narrower.ID == e.Broader.ID
}

// Stats is the category_stats row of one (category, version). A nil field
// has not been computed yet.
type Stats struct {
	CategoryID             int64
	VersionID              int64
	Subcategories          *int64
	Articles               *int64
	Supercategories        *int64
	TotalCategories        *int64
	TotalArticles          *int64
	SubcategoriesReporting *int64
}

// Resolved reports whether both transitive totals are known.
func (s *Stats) Resolved() bool {
	return s.TotalCategories != nil && s.TotalArticles != nil
}
