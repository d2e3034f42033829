// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/wikicat/wikicat/internal/graph"
	"github.com/wikicat/wikicat/internal/store"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-versions",
		Method:      http.MethodGet,
		Path:        "/api/v1/versions",
		Summary:     "List dataset versions ordered by release date",
		Tags:        []string{"versions"},
	}, s.handleListVersions)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-category",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories/{name}",
		Summary:     "Look up a category and the versions it appears in",
		Tags:        []string{"categories"},
	}, s.handleGetCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-category-detail",
		Method:      http.MethodGet,
		Path:        "/api/v1/versions/{versionId}/categories/{id}",
		Summary:     "Category neighbours, article count and stats in one version",
		Tags:        []string{"categories"},
	}, s.handleCategoryDetail)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-category-levels",
		Method:      http.MethodGet,
		Path:        "/api/v1/versions/{versionId}/categories/{id}/levels",
		Summary:     "Breadth-first frontiers below or above a category",
		Tags:        []string{"categories"},
	}, s.handleLevels)

	huma.Register(s.api, huma.Operation{
		OperationID: "search-categories",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Find categories whose name contains a substring",
		Tags:        []string{"categories"},
	}, s.handleSearch)
}

// --- Response bodies ---

// VersionBody is one dataset version.
type VersionBody struct {
	ID       int64  `json:"id"`
	Version  string `json:"version" example:"3.9"`
	Language string `json:"language" example:"en"`
	Date     string `json:"date,omitempty" example:"2013-09-17"`
}

// CategoryBody is a category reference.
type CategoryBody struct {
	ID   int64  `json:"id"`
	Name string `json:"name" example:"Mammals"`
}

// StatsBody mirrors a category_stats row; null means not yet computed.
type StatsBody struct {
	Subcategories   *int64 `json:"num_subcategories"`
	Articles        *int64 `json:"num_articles"`
	Supercategories *int64 `json:"num_supercategories"`
	TotalCategories *int64 `json:"total_categories"`
	TotalArticles   *int64 `json:"total_articles"`
}

// CategoryDetailBody describes a category within one version.
type CategoryDetailBody struct {
	Category        CategoryBody   `json:"category"`
	Version         VersionBody    `json:"version"`
	Subcategories   []CategoryBody `json:"subcategories"`
	Supercategories []CategoryBody `json:"supercategories"`
	Articles        int64          `json:"articles"`
	Stats           *StatsBody     `json:"stats,omitempty"`
}

// LevelBody is one BFS frontier.
type LevelBody struct {
	Level      int            `json:"level"`
	Categories []CategoryBody `json:"categories"`
}

func versionBody(v store.Version) VersionBody {
	b := VersionBody{ID: v.ID, Version: v.Label, Language: v.Language}
	if !v.Date.IsZero() {
		b.Date = v.Date.Format(time.DateOnly)
	}
	return b
}

func categoryBodies(cs []store.Category) []CategoryBody {
	out := make([]CategoryBody, len(cs))
	for i, c := range cs {
		out[i] = CategoryBody{ID: c.ID, Name: c.Name}
	}
	return out
}

// --- Request/Response types for huma ---

type listVersionsOutput struct {
	Body struct {
		Versions []VersionBody `json:"versions"`
	}
}

type getCategoryInput struct {
	Name string `path:"name" minLength:"1" doc:"Category name as imported, e.g. Category:Mammals"`
}
type getCategoryOutput struct {
	Body struct {
		CategoryBody
		Versions []VersionBody `json:"versions"`
	}
}

type categoryDetailInput struct {
	VersionID int64 `path:"versionId"`
	ID        int64 `path:"id"`
}
type categoryDetailOutput struct {
	Body CategoryDetailBody
}

type levelsInput struct {
	VersionID int64  `path:"versionId"`
	ID        int64  `path:"id"`
	Depth     int    `query:"depth" minimum:"-1" maximum:"50" default:"-1" doc:"Levels to expand from the root; -1 uses the server default"`
	Direction string `query:"direction" enum:"down,up" default:"down"`
	Dedup     bool   `query:"dedup" default:"true" doc:"Report each category once, at its shallowest level"`
}
type levelsOutput struct {
	Body struct {
		Root   CategoryBody `json:"root"`
		Levels []LevelBody  `json:"levels"`
	}
}

type searchInput struct {
	Query string `query:"q" required:"true" minLength:"1" doc:"Substring to match"`
	Limit int    `query:"limit" minimum:"1" maximum:"500" default:"50"`
}
type searchOutput struct {
	Body struct {
		Categories []CategoryBody `json:"categories"`
	}
}

// --- Handlers ---

// apiError maps a coded error onto the matching HTTP status.
func (s *Server) apiError(msg string, err error) error {
	status := wkerr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, "error", err)
		return huma.Error500InternalServerError(msg)
	}
	return huma.NewError(status, msg, err)
}

func (s *Server) handleListVersions(ctx context.Context, _ *struct{}) (*listVersionsOutput, error) {
	versions, err := s.store.ListVersions(ctx)
	if err != nil {
		return nil, s.apiError("listing versions", err)
	}
	out := &listVersionsOutput{}
	out.Body.Versions = make([]VersionBody, len(versions))
	for i, v := range versions {
		out.Body.Versions[i] = versionBody(v)
	}
	return out, nil
}

func (s *Server) handleGetCategory(ctx context.Context, input *getCategoryInput) (*getCategoryOutput, error) {
	c, err := s.store.CategoryByName(ctx, input.Name)
	if err != nil {
		return nil, s.apiError("getting category", err)
	}
	versions, err := s.store.CategoryVersions(ctx, c.ID)
	if err != nil {
		return nil, s.apiError("listing category versions", err)
	}

	out := &getCategoryOutput{}
	out.Body.CategoryBody = CategoryBody{ID: c.ID, Name: c.Name}
	out.Body.Versions = make([]VersionBody, len(versions))
	for i, v := range versions {
		out.Body.Versions[i] = versionBody(v)
	}
	return out, nil
}

// scoped resolves the version and category path parameters.
func (s *Server) scoped(ctx context.Context, versionID, categoryID int64) (*store.Version, *store.Category, error) {
	v, err := s.store.GetVersion(ctx, versionID)
	if err != nil {
		return nil, nil, s.apiError("version not found", err)
	}
	c, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, nil, s.apiError("category not found", err)
	}
	return v, c, nil
}

func (s *Server) handleCategoryDetail(ctx context.Context, input *categoryDetailInput) (*categoryDetailOutput, error) {
	v, c, err := s.scoped(ctx, input.VersionID, input.ID)
	if err != nil {
		return nil, err
	}
	scope := store.ScopeOf(*v)

	subs, err := s.store.Subcategories(ctx, c.ID, scope)
	if err != nil {
		return nil, s.apiError("listing subcategories", err)
	}
	supers, err := s.store.Supercategories(ctx, c.ID, scope)
	if err != nil {
		return nil, s.apiError("listing supercategories", err)
	}
	articles, err := s.store.CountArticles(ctx, c.ID, scope)
	if err != nil {
		return nil, s.apiError("counting articles", err)
	}

	body := CategoryDetailBody{
		Category:        CategoryBody{ID: c.ID, Name: c.Name},
		Version:         versionBody(*v),
		Subcategories:   categoryBodies(subs),
		Supercategories: categoryBodies(supers),
		Articles:        articles,
	}

	st, err := s.store.GetStats(ctx, c.ID, v.ID)
	switch {
	case err == nil:
		body.Stats = &StatsBody{
			Subcategories:   st.Subcategories,
			Articles:        st.Articles,
			Supercategories: st.Supercategories,
			TotalCategories: st.TotalCategories,
			TotalArticles:   st.TotalArticles,
		}
	case !wkerr.IsNotFound(err):
		return nil, s.apiError("reading stats", err)
	}

	return &categoryDetailOutput{Body: body}, nil
}

func (s *Server) handleLevels(ctx context.Context, input *levelsInput) (*levelsOutput, error) {
	v, c, err := s.scoped(ctx, input.VersionID, input.ID)
	if err != nil {
		return nil, err
	}
	dir, err := graph.ParseDirection(input.Direction)
	if err != nil {
		return nil, s.apiError("invalid direction", err)
	}
	depth := input.Depth
	if depth < 0 {
		depth = s.cfg.MaxLevels
	}

	it := s.walker.Levels(*c, graph.Options{
		Direction: dir,
		MaxLevels: graph.MaxLevels(depth),
		Dedup:     input.Dedup,
		Scope:     store.ScopeOf(*v),
	})

	out := &levelsOutput{}
	out.Body.Root = CategoryBody{ID: c.ID, Name: c.Name}
	for it.Next(ctx) {
		out.Body.Levels = append(out.Body.Levels, LevelBody{
			Level:      it.Level(),
			Categories: categoryBodies(it.Frontier()),
		})
	}
	if err := it.Err(); err != nil {
		return nil, s.apiError("traversing levels", err)
	}
	return out, nil
}

func (s *Server) handleSearch(ctx context.Context, input *searchInput) (*searchOutput, error) {
	found, err := s.store.SearchCategories(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, s.apiError("searching categories", err)
	}
	out := &searchOutput{}
	out.Body.Categories = categoryBodies(found)
	return out, nil
}
