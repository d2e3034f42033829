// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

// Package stats computes per-category subtree statistics of one version by
// bottom-up fixpoint iteration over conditional bulk updates. Each step only
// fills columns that are still NULL, so a run can be interrupted between
// passes and resumed by running again.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wikicat/wikicat/internal/metrics"
	"github.com/wikicat/wikicat/internal/store"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

// DefaultPasses is the pass budget when Options.Passes is zero.
const DefaultPasses = 5

// Options controls a propagation run.
type Options struct {
	// Passes bounds the fixpoint loop.
	Passes int
	// Reset clears the version's computed stats before propagating.
	Reset bool
}

func (o Options) passes() (int, error) {
	switch {
	case o.Passes < 0:
		return 0, wkerr.New(wkerr.CodeStatsOptionsInvalid, "passes must not be negative", wkerr.Field("passes", o.Passes))
	case o.Passes == 0:
		return DefaultPasses, nil
	default:
		return o.Passes, nil
	}
}

// ConvergenceWarning reports a run that left totals unresolved. It is not
// an error: the computed rows are valid and the run can be resumed.
type ConvergenceWarning struct {
	VersionID  int64
	Version    string
	Unresolved int64
	Passes     int
	// Stalled is set when a pass resolved nothing while rows remained,
	// meaning more passes will not help: the rows sit on or above a cycle.
	Stalled bool
}

func (w *ConvergenceWarning) String() string {
	if w.Stalled {
		return fmt.Sprintf("version %s: %d categories cannot converge (cycle)", w.Version, w.Unresolved)
	}
	return fmt.Sprintf("version %s: %d categories unresolved after %d passes, retry with more passes",
		w.Version, w.Unresolved, w.Passes)
}

// Err returns the warning as a coded error for logging and exit reporting.
func (w *ConvergenceWarning) Err() error {
	return wkerr.New(wkerr.CodeStatsPropagateNotConverged, w.String(),
		wkerr.FieldVersionID(w.VersionID),
		wkerr.Field("unresolved", w.Unresolved),
		wkerr.Field("passes", w.Passes),
		wkerr.Field("stalled", w.Stalled),
	)
}

// Report summarizes one run.
type Report struct {
	Version    store.Version
	Ensured    int64
	Reset      int64
	Immediate  int64
	Baselines  int64
	Resolved   []int64
	Unresolved int64
	Warning    *ConvergenceWarning
	Duration   time.Duration
}

// Converged reports whether every category of the version has totals.
func (r *Report) Converged() bool {
	return r.Unresolved == 0
}

// Option configures a Propagator.
type Option func(*Propagator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Propagator) {
		p.logger = l
	}
}

// Propagator runs stats propagation against a store.
type Propagator struct {
	stats  store.StatsStore
	logger *slog.Logger
}

// New creates a Propagator.
func New(s store.StatsStore, opts ...Option) *Propagator {
	p := &Propagator{stats: s, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func requireVersion(v store.Version) error {
	if v.ID == 0 {
		return wkerr.New(wkerr.CodeStoreScopeInvalid, "propagation requires a version")
	}
	return nil
}

// Reset clears the computed stats of v back to NULL, keeping the rows.
func (p *Propagator) Reset(ctx context.Context, v store.Version) (int64, error) {
	if err := requireVersion(v); err != nil {
		return 0, err
	}
	n, err := p.stats.ResetStats(ctx, v.ID)
	if err != nil {
		return 0, err
	}
	p.logger.Info("stats reset", "version", v.Label, "version_id", v.ID, "rows", n)
	return n, nil
}

// Run propagates the stats of v. A non-converged run returns a Report with
// Warning set and a nil error.
func (p *Propagator) Run(ctx context.Context, v store.Version, opts Options) (*Report, error) {
	if err := requireVersion(v); err != nil {
		return nil, err
	}
	passes, err := opts.passes()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	logger := p.logger.With("version", v.Label, "version_id", v.ID)
	report := &Report{Version: v}

	if report.Ensured, err = p.stats.EnsureStats(ctx, v.ID); err != nil {
		return nil, err
	}
	if opts.Reset {
		if report.Reset, err = p.Reset(ctx, v); err != nil {
			return nil, err
		}
	}
	if report.Immediate, err = p.stats.ComputeImmediate(ctx, v.ID); err != nil {
		return nil, err
	}
	if report.Baselines, err = p.stats.SetBaselines(ctx, v.ID); err != nil {
		return nil, err
	}
	logger.Debug("stats prepared",
		"ensured", report.Ensured,
		"immediate", report.Immediate,
		"baselines", report.Baselines,
	)

	stalled := false
	for pass := 1; pass <= passes; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := p.stats.PropagatePass(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		metrics.PropagationPasses.Inc()
		report.Resolved = append(report.Resolved, n)
		logger.Debug("propagation pass", "pass", pass, "resolved", n)
		if n == 0 {
			stalled = true
			break
		}
	}

	if report.Unresolved, err = p.stats.CountUnresolved(ctx, v.ID); err != nil {
		return nil, err
	}
	metrics.UnresolvedCategories.WithLabelValues(v.Label).Set(float64(report.Unresolved))
	report.Duration = time.Since(start)

	if report.Unresolved > 0 {
		report.Warning = &ConvergenceWarning{
			VersionID:  v.ID,
			Version:    v.Label,
			Unresolved: report.Unresolved,
			Passes:     len(report.Resolved),
			Stalled:    stalled,
		}
		logger.Warn("stats did not converge", "error", report.Warning.Err())
		return report, nil
	}

	logger.Info("stats converged", "passes", len(report.Resolved), "duration", report.Duration)
	return report, nil
}

// RunAll propagates every version in order and stops at the first error.
func (p *Propagator) RunAll(ctx context.Context, versions []store.Version, opts Options) ([]*Report, error) {
	reports := make([]*Report, 0, len(versions))
	for _, v := range versions {
		r, err := p.Run(ctx, v, opts)
		if err != nil {
			return reports, wkerr.With(err, wkerr.Field("version", v.Label))
		}
		reports = append(reports, r)
	}
	return reports, nil
}
