// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

// Package health runs named dependency probes and summarizes them for the
// /health endpoint and `wikicat doctor`.
package health

import (
	"context"
	"sort"
	"time"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Check probes one dependency and returns nil when it is usable.
type Check func(ctx context.Context) error

// Result is the point-in-time outcome of one Check, safe to serialize.
type Result struct {
	Name      string `json:"name"`
	Healthy   bool   `json:"healthy"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Report aggregates the results of every check.
type Report struct {
	Status    string    `json:"status"`
	Checks    []Result  `json:"checks"`
	CheckedAt time.Time `json:"checked_at"`
}

// Run executes checks one after another, each bounded by timeout when it
// is positive. Results are ordered by name.
func Run(ctx context.Context, checks map[string]Check, timeout time.Duration) Report {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	report := Report{Status: StatusOK, Checks: make([]Result, 0, len(names)), CheckedAt: time.Now().UTC()}
	for _, name := range names {
		cctx, cancel := ctx, context.CancelFunc(func() {})
		if timeout > 0 {
			cctx, cancel = context.WithTimeout(ctx, timeout)
		}
		start := time.Now()
		err := checks[name](cctx)
		cancel()

		r := Result{Name: name, Healthy: err == nil, LatencyMS: time.Since(start).Milliseconds()}
		if err != nil {
			r.Error = err.Error()
			report.Status = StatusDegraded
		}
		report.Checks = append(report.Checks, r)
	}
	return report
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool {
	return r.Status == StatusOK
}
