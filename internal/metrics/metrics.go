// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

// Package metrics holds the Prometheus collectors of the loader, resolver,
// traversal, stats propagation, downloads and the HTTP API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resolver lookup outcomes.
const (
	OutcomeHit      = "hit"
	OutcomeStoreHit = "store_hit"
	OutcomeCreated  = "created"
)

var (
	// RowsImported counts rows accepted by the store per relation.
	RowsImported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikicat_loader_rows_imported_total",
		Help: "Rows inserted by the bulk loader",
	}, []string{"relation"})

	// RecordsSkipped counts incomplete records dropped by the loader.
	RecordsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikicat_loader_records_skipped_total",
		Help: "Records skipped because a declared column was empty",
	}, []string{"relation"})

	// FlushDuration tracks the latency of one batch flush.
	FlushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wikicat_loader_flush_duration_seconds",
		Help:    "Batch flush duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
	}, []string{"relation"})

	// ResolverLookups counts name resolutions by node kind and outcome.
	ResolverLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikicat_resolver_lookups_total",
		Help: "Name resolutions by node kind and outcome",
	}, []string{"kind", "outcome"})

	// CacheEvictions counts entries dropped from resolver caches.
	CacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikicat_resolver_cache_evictions_total",
		Help: "Resolver cache entries evicted",
	}, []string{"kind"})

	// TraversalExpansions counts store round trips issued by traversals.
	TraversalExpansions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikicat_graph_expansions_total",
		Help: "Neighbor queries issued by graph traversals",
	}, []string{"direction"})

	// PropagationPasses counts fixpoint passes executed.
	PropagationPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikicat_stats_passes_total",
		Help: "Stats propagation passes executed",
	})

	// UnresolvedCategories reports unresolved stats rows per version label
	// after the last propagation run.
	UnresolvedCategories = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wikicat_stats_unresolved_categories",
		Help: "Categories whose totals are still unknown after propagation",
	}, []string{"version"})

	// HTTPRequests counts API requests by route pattern and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikicat_http_requests_total",
		Help: "HTTP requests served by the browsing API",
	}, []string{"method", "route", "status"})

	// DownloadBytes counts dataset bytes fetched from the mirror.
	DownloadBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikicat_download_bytes_total",
		Help: "Bytes downloaded per dataset",
	}, []string{"dataset"})
)

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
