// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

// Package dbpedia knows where the DBpedia category datasets live, keeps a
// local download cache and turns their N-Triples into loader records.
package dbpedia

import (
	_ "embed"
	"slices"
	"strings"
	"sync"
	"time"

	wkerr "github.com/wikicat/wikicat/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

const dateLayout = "2006-01-02"

// Dataset is one importable dataset and the file name DBpedia uses for it.
type Dataset struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// Layout describes the download URLs of a group of releases.
type Layout struct {
	URL   string            `yaml:"url"`
	Files map[string]string `yaml:"files"`
}

// Release is one DBpedia version.
type Release struct {
	Name   string `yaml:"name"`
	Date   string `yaml:"date"`
	Layout string `yaml:"layout"`
	// Remote replaces Name in download URLs when set.
	Remote string `yaml:"remote"`
}

// ReleaseDate parses Date; the zero time when absent.
func (r Release) ReleaseDate() time.Time {
	t, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Catalog lists known datasets, releases and URL layouts.
type Catalog struct {
	DefaultVersion  string            `yaml:"default_version"`
	DefaultLanguage string            `yaml:"default_language"`
	DefaultFormat   string            `yaml:"default_format"`
	Datasets        []Dataset         `yaml:"datasets"`
	Layouts         map[string]Layout `yaml:"layouts"`
	Versions        []Release         `yaml:"versions"`
}

// Resource identifies one downloadable file.
type Resource struct {
	Dataset  string
	Version  string
	Language string
	Format   string
}

func (r Resource) String() string {
	return r.Dataset + "@" + r.Version + "/" + r.Language
}

// ParseCatalog decodes and checks a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, wkerr.Wrap(err, wkerr.CodeCatalogLoadFailure, "parsing catalog")
	}
	if c.DefaultFormat == "" {
		c.DefaultFormat = "nt"
	}
	for _, v := range c.Versions {
		if _, ok := c.Layouts[v.Layout]; !ok {
			return nil, wkerr.New(wkerr.CodeCatalogLoadFailure, "version uses unknown layout",
				wkerr.Field("version", v.Name), wkerr.Field("layout", v.Layout))
		}
		if v.Date != "" && v.ReleaseDate().IsZero() {
			return nil, wkerr.New(wkerr.CodeCatalogLoadFailure, "invalid release date",
				wkerr.Field("version", v.Name), wkerr.Field("date", v.Date))
		}
	}
	return &c, nil
}

// DefaultCatalog returns the embedded catalog.
var DefaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
})

// DatasetNames lists dataset names in catalog order.
func (c *Catalog) DatasetNames() []string {
	out := make([]string, len(c.Datasets))
	for i, d := range c.Datasets {
		out[i] = d.Name
	}
	return out
}

// VersionNames lists version names in catalog order, newest first.
func (c *Catalog) VersionNames() []string {
	out := make([]string, len(c.Versions))
	for i, v := range c.Versions {
		out[i] = v.Name
	}
	return out
}

// Dataset looks up a dataset by name.
func (c *Catalog) Dataset(name string) (Dataset, error) {
	i := slices.IndexFunc(c.Datasets, func(d Dataset) bool { return d.Name == name })
	if i < 0 {
		return Dataset{}, wkerr.New(wkerr.CodeCatalogDatasetInvalid, "unknown dataset",
			wkerr.FieldDataset(name), wkerr.Field("known", strings.Join(c.DatasetNames(), ",")))
	}
	return c.Datasets[i], nil
}

// Release looks up a version by name.
func (c *Catalog) Release(name string) (Release, error) {
	i := slices.IndexFunc(c.Versions, func(v Release) bool { return v.Name == name })
	if i < 0 {
		return Release{}, wkerr.New(wkerr.CodeCatalogVersionInvalid, "unknown version",
			wkerr.Field("version", name), wkerr.Field("known", strings.Join(c.VersionNames(), ",")))
	}
	return c.Versions[i], nil
}

// Resource validates the names and fills defaults for empty fields.
func (c *Catalog) Resource(dataset, version, language string) (Resource, error) {
	if version == "" {
		version = c.DefaultVersion
	}
	if language == "" {
		language = c.DefaultLanguage
	}
	if _, err := c.Dataset(dataset); err != nil {
		return Resource{}, err
	}
	if _, err := c.Release(version); err != nil {
		return Resource{}, err
	}
	return Resource{Dataset: dataset, Version: version, Language: language, Format: c.DefaultFormat}, nil
}

// Resources expands languages x versions x datasets. The datasets of one
// version are listed together.
func (c *Catalog) Resources(datasets, versions, languages []string) ([]Resource, error) {
	var out []Resource
	for _, lang := range languages {
		for _, v := range versions {
			for _, d := range datasets {
				r, err := c.Resource(d, v, lang)
				if err != nil {
					return nil, err
				}
				out = append(out, r)
			}
		}
	}
	return out, nil
}

// URL builds the download URL of r.
func (c *Catalog) URL(r Resource) (string, error) {
	ds, err := c.Dataset(r.Dataset)
	if err != nil {
		return "", err
	}
	rel, err := c.Release(r.Version)
	if err != nil {
		return "", err
	}
	layout := c.Layouts[rel.Layout]

	file := ds.File
	if renamed, ok := layout.Files[file]; ok {
		file = renamed
	}
	remote := rel.Remote
	if remote == "" {
		remote = rel.Name
	}
	format := r.Format
	if format == "" {
		format = c.DefaultFormat
	}

	return strings.NewReplacer(
		"{remote}", remote,
		"{language}", r.Language,
		"{file}", file,
		"{format}", format,
	).Replace(layout.URL), nil
}
