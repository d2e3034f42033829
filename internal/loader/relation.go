// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package loader

import (
	"github.com/wikicat/wikicat/internal/store"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

// VersionColumn is stamped on every imported row.
const VersionColumn = "version_id"

// Column maps one record field to one table column. When Ref is set the
// field holds a natural key of that node kind and the column receives the
// resolved id; otherwise the value is stored verbatim.
type Column struct {
	Name  string
	Field string
	Ref   store.NodeKind
}

// Relation declares how records become rows of a versioned table.
type Relation struct {
	Name    string
	Table   string
	Columns []Column
}

var (
	// CategoryCategories holds narrower -> broader category edges.
	CategoryCategories = Relation{
		Name:  "category_categories",
		Table: "category_categories",
		Columns: []Column{
			{Name: "narrower_id", Field: "narrower", Ref: store.KindCategory},
			{Name: "broader_id", Field: "broader", Ref: store.KindCategory},
		},
	}

	// ArticleCategories holds article memberships.
	ArticleCategories = Relation{
		Name:  "article_categories",
		Table: "article_categories",
		Columns: []Column{
			{Name: "article_id", Field: "article", Ref: store.KindArticle},
			{Name: "category_id", Field: "category", Ref: store.KindCategory},
		},
	}

	// CategoryLabels holds display labels of categories.
	CategoryLabels = Relation{
		Name:  "category_labels",
		Table: "category_labels",
		Columns: []Column{
			{Name: "category_id", Field: "category", Ref: store.KindCategory},
			{Name: "label", Field: "label"},
		},
	}
)

// Relations lists every importable relation.
func Relations() []Relation {
	return []Relation{CategoryCategories, ArticleCategories, CategoryLabels}
}

// RelationByName returns the relation imported from the named dataset.
func RelationByName(name string) (Relation, error) {
	for _, rel := range Relations() {
		if rel.Name == name {
			return rel, nil
		}
	}
	return Relation{}, wkerr.New(wkerr.CodeLoaderRelationInvalid, "unknown dataset", wkerr.FieldDataset(name))
}

// ColumnNames returns the insert column list, version column last.
func (r Relation) ColumnNames() []string {
	names := make([]string, 0, len(r.Columns)+1)
	for _, c := range r.Columns {
		names = append(names, c.Name)
	}
	return append(names, VersionColumn)
}

// Kinds returns the distinct node kinds referenced, in column order.
func (r Relation) Kinds() []store.NodeKind {
	var kinds []store.NodeKind
	seen := make(map[store.NodeKind]bool)
	for _, c := range r.Columns {
		if c.Ref == "" || seen[c.Ref] {
			continue
		}
		seen[c.Ref] = true
		kinds = append(kinds, c.Ref)
	}
	return kinds
}

func (r Relation) validate() error {
	if r.Table == "" || len(r.Columns) == 0 {
		return wkerr.New(wkerr.CodeLoaderRelationInvalid, "relation needs a table and columns",
			wkerr.FieldRelation(r.Name))
	}
	for _, c := range r.Columns {
		if c.Name == "" || c.Field == "" {
			return wkerr.New(wkerr.CodeLoaderRelationInvalid, "column needs a name and a field",
				wkerr.FieldRelation(r.Name))
		}
		if c.Ref != "" {
			if _, err := c.Ref.Table(); err != nil {
				return wkerr.Wrap(err, wkerr.CodeLoaderRelationInvalid, "unknown reference kind",
					wkerr.FieldRelation(r.Name), wkerr.Field("column", c.Name))
			}
		}
	}
	return nil
}
