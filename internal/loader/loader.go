// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

// Package loader streams records into a versioned relation. Natural keys
// are resolved to node ids in batches and every batch is committed on its
// own.
package loader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wikicat/wikicat/internal/lock"
	"github.com/wikicat/wikicat/internal/metrics"
	"github.com/wikicat/wikicat/internal/resolve"
	"github.com/wikicat/wikicat/internal/store"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

// DefaultBatchSize is the number of rows per committed insert.
const DefaultBatchSize = 10000

// Store is the part of the backend the loader writes to.
type Store interface {
	store.NodeStore
	store.RowWriter
}

// Config tunes an import.
type Config struct {
	BatchSize  int
	CacheLimit int
	CutFactor  float64
	// Limit stops the import after this many records when positive.
	Limit int
}

// DefaultConfig returns the defaults used by the CLI.
func DefaultConfig() Config {
	return Config{
		BatchSize:  DefaultBatchSize,
		CacheLimit: resolve.DefaultCacheLimit,
		CutFactor:  resolve.DefaultCutFactor,
	}
}

// Option configures a Loader.
type Option func(*Loader)

// WithConfig replaces the import tuning.
func WithConfig(cfg Config) Option {
	return func(l *Loader) {
		l.cfg = cfg
	}
}

// WithLocker sets the single-writer lock. Defaults to an in-process lock.
func WithLocker(locker lock.Locker) Option {
	return func(l *Loader) {
		l.locker = locker
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// Loader imports record streams. A Loader may run several imports
// concurrently as long as they target different (relation, version) pairs.
type Loader struct {
	store  Store
	cfg    Config
	locker lock.Locker
	logger *slog.Logger
}

// New creates a Loader writing to s.
func New(s Store, opts ...Option) *Loader {
	l := &Loader{
		store:  s,
		cfg:    DefaultConfig(),
		locker: lock.NewLocal(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.cfg.BatchSize <= 0 {
		l.cfg.BatchSize = DefaultBatchSize
	}
	return l
}

// Result summarizes one import.
type Result struct {
	RunID     string          `json:"run_id"`
	Relation  string          `json:"relation"`
	VersionID int64           `json:"version_id"`
	Deleted   int64           `json:"deleted"`
	Read      int64           `json:"read"`
	Skipped   int64           `json:"skipped"`
	Imported  int64           `json:"imported"`
	Batches   int             `json:"batches"`
	Resolvers []resolve.Stats `json:"resolvers"`
	Duration  time.Duration   `json:"duration"`
}

// ref is a column value waiting for its resolver to flush.
type ref struct {
	row, col int
	kind     store.NodeKind
	name     string
}

// job is the state of one Import call. Resolvers and their caches live
// exactly as long as the job.
type job struct {
	*Loader
	rel       Relation
	version   store.Version
	src       Source
	columns   []string
	resolvers map[store.NodeKind]*resolve.Resolver
	lease     lock.Lease
	logger    *slog.Logger

	rows [][]any
	refs []ref

	result *Result
}

// Import replaces the rows of rel tagged with version by the records of
// src. Existing rows of that version are deleted first, then rows are
// inserted in batches of Config.BatchSize, each committed separately. A
// failed import leaves earlier batches committed; re-running it from the
// start is the recovery path.
func (l *Loader) Import(ctx context.Context, rel Relation, version store.Version, src Source) (*Result, error) {
	if err := rel.validate(); err != nil {
		return nil, err
	}
	if version.ID == 0 {
		return nil, wkerr.New(wkerr.CodeStoreScopeInvalid, "import requires a version", wkerr.FieldRelation(rel.Name))
	}

	start := time.Now()
	j := &job{
		Loader:    l,
		rel:       rel,
		version:   version,
		src:       src,
		columns:   rel.ColumnNames(),
		resolvers: make(map[store.NodeKind]*resolve.Resolver),
		result: &Result{
			RunID:     uuid.NewString(),
			Relation:  rel.Name,
			VersionID: version.ID,
		},
	}
	j.logger = l.logger.With("run_id", j.result.RunID, "relation", rel.Name, "version", version.Label, "version_id", version.ID)
	for _, kind := range rel.Kinds() {
		j.resolvers[kind] = resolve.New(kind, l.store,
			resolve.WithCache(l.cfg.CacheLimit, l.cfg.CutFactor),
			resolve.WithLogger(j.logger),
		)
	}

	lease, err := l.locker.Acquire(ctx, lock.ImportKey(rel.Table, version.ID))
	if err != nil {
		return nil, err
	}
	j.lease = lease
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			j.logger.Warn("releasing import lock", "error", err)
		}
	}()

	err = j.run(ctx)
	j.result.Duration = time.Since(start)
	for _, kind := range rel.Kinds() {
		j.result.Resolvers = append(j.result.Resolvers, j.resolvers[kind].Stats())
	}
	if err != nil {
		j.logger.Error("import failed",
			"imported", j.result.Imported,
			"batches", j.result.Batches,
			"error", err,
		)
		return j.result, err
	}

	j.logger.Info("import finished",
		"deleted", j.result.Deleted,
		"read", j.result.Read,
		"skipped", j.result.Skipped,
		"imported", j.result.Imported,
		"batches", j.result.Batches,
		"duration", j.result.Duration,
	)
	return j.result, nil
}

func (j *job) run(ctx context.Context) error {
	deleted, err := j.store.DeleteVersion(ctx, j.rel.Table, j.version.ID)
	if err != nil {
		return err
	}
	j.result.Deleted = deleted
	j.logger.Info("import started", "deleted", deleted, "batch_size", j.cfg.BatchSize)

	for j.cfg.Limit <= 0 || j.result.Read < int64(j.cfg.Limit) {
		rec, err := j.nextRecord(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		j.result.Read++
		j.add(rec)

		if len(j.rows) >= j.cfg.BatchSize {
			if err := j.flush(ctx); err != nil {
				return err
			}
		}
	}
	return j.flush(ctx)
}

// nextRecord checks for cancellation only on batch boundaries so that no
// batch is ever half built when the import stops.
func (j *job) nextRecord(ctx context.Context) (Record, error) {
	if len(j.rows) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	rec, err := j.src.Next(ctx)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, wkerr.Wrap(err, wkerr.CodeLoaderSourceFailure, "reading record",
			wkerr.FieldRelation(j.rel.Name), wkerr.Field("record", j.result.Read+1))
	}
	return rec, err
}

func (j *job) add(rec Record) {
	for _, c := range j.rel.Columns {
		if rec[c.Field] == "" {
			j.result.Skipped++
			metrics.RecordsSkipped.WithLabelValues(j.rel.Name).Inc()
			j.logger.Warn("skipping incomplete record", "field", c.Field, "record", j.result.Read)
			return
		}
	}

	row := make([]any, len(j.columns))
	var pending []ref
	for i, c := range j.rel.Columns {
		value := rec[c.Field]
		if c.Ref == "" {
			row[i] = value
			continue
		}
		if id, ok := j.resolvers[c.Ref].Want(value); ok {
			row[i] = id
			continue
		}
		pending = append(pending, ref{row: len(j.rows), col: i, kind: c.Ref, name: value})
	}
	row[len(row)-1] = j.version.ID
	j.rows = append(j.rows, row)
	j.refs = append(j.refs, pending...)
}

func (j *job) flush(ctx context.Context) error {
	if len(j.rows) == 0 {
		return nil
	}
	start := time.Now()
	batch := j.result.Batches + 1

	resolved := make(map[store.NodeKind]map[string]int64, len(j.resolvers))
	for kind, r := range j.resolvers {
		ids, err := r.Flush(ctx)
		if err != nil {
			return wkerr.Wrap(err, wkerr.CodeLoaderFlushFailure, "resolving names",
				wkerr.FieldRelation(j.rel.Name), wkerr.Field("batch", batch), wkerr.Field("kind", string(kind)))
		}
		resolved[kind] = ids
	}
	for _, p := range j.refs {
		j.rows[p.row][p.col] = resolved[p.kind][p.name]
	}

	n, err := j.store.InsertRows(ctx, j.rel.Table, j.columns, j.rows)
	if err != nil {
		return wkerr.Wrap(err, wkerr.CodeLoaderFlushFailure, "inserting batch",
			wkerr.FieldRelation(j.rel.Name), wkerr.Field("batch", batch), wkerr.Field("rows", len(j.rows)))
	}

	j.result.Imported += n
	j.result.Batches = batch
	metrics.RowsImported.WithLabelValues(j.rel.Name).Add(float64(n))
	metrics.FlushDuration.WithLabelValues(j.rel.Name).Observe(time.Since(start).Seconds())
	j.logger.Debug("batch committed", "batch", batch, "rows", n, "total", j.result.Imported, "duration", time.Since(start))

	j.rows = j.rows[:0]
	j.refs = j.refs[:0]

	if err := j.lease.Refresh(ctx); err != nil {
		return err
	}
	return nil
}
