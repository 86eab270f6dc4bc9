// Package aggregator runs one aggregation pass over a pool: it discovers the
// pool's daemons, queries them concurrently and folds every record into a
// single table of counters.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"poolmon/internal/pkg/accounting"
	"poolmon/internal/pkg/bucket"
	"poolmon/internal/pkg/classify"
	"poolmon/internal/pkg/fetch"
	"poolmon/internal/pkg/model"
	"poolmon/internal/pkg/observability"
	"poolmon/internal/pkg/pool"
	"poolmon/internal/pkg/table"
)

// Config is what one aggregator needs to know about its pool.
type Config struct {
	// Pool is the collector address.
	Pool string
	// Bucket is the base width of the age buckets.
	Bucket time.Duration
	Policy fetch.Policy
	// Concurrency bounds the sources queried at once; 0 means no bound.
	Concurrency int
	// ScheddConstraint selects which schedds are queried.
	ScheddConstraint string
	// SlotConstraint selects which slot ads are read.
	SlotConstraint string

	Weighting    accounting.Weighting
	TotalsOnly   bool
	JobResources bool
}

// Result is the outcome of one pass.
type Result struct {
	Snapshot table.Snapshot
	// Failed names the sources left out of Snapshot because every attempt
	// against them failed.
	Failed []string
}

type Option func(*Aggregator)

// WithClock replaces time.Now as the pass's reference time.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

type Aggregator struct {
	cfg    Config
	svc    pool.QueryService
	logger *slog.Logger
	schema bucket.Schema
	now    func() time.Time
}

func New(cfg Config, svc pool.QueryService, logger *slog.Logger, opts ...Option) (*Aggregator, error) {
	schema, err := bucket.New(cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if cfg.Weighting == "" {
		cfg.Weighting = accounting.WeightCPU
	}
	a := &Aggregator{
		cfg:    cfg,
		svc:    svc,
		logger: logger,
		schema: schema,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Package-level default Aggregator for convenience wiring.
var defaultAggregator *Aggregator

// SetDefault sets the package-level default Aggregator.
func SetDefault(a *Aggregator) { defaultAggregator = a }

// Default returns the package-level default Aggregator.
func Default() *Aggregator { return defaultAggregator }

var jobQueries = []pool.Query{pool.IdleJobs, pool.RunningJobs, pool.HeldJobs}

// JobCounts counts idle, running and held jobs across every schedd of the
// pool. A schedd that cannot be read is listed in Result.Failed and
// contributes nothing. Only a failure to list the schedds fails the pass.
func (a *Aggregator) JobCounts(ctx context.Context) (Result, error) {
	defer observePass("jobs", time.Now())

	schedds, err := a.schedds(ctx)
	if err != nil {
		return Result{Snapshot: table.Snapshot{}}, fmt.Errorf("list schedds of pool %s: %w", a.cfg.Pool, err)
	}
	batches := a.fanOut(ctx, schedds, jobQueries)

	now := a.now()
	t := table.New()
	res := Result{}
	folded := 0
	for _, b := range batches {
		if b.err != nil {
			res.Failed = append(res.Failed, b.src.String())
			continue
		}
		for _, r := range b.records {
			a.foldJob(t, r, now)
		}
		folded += len(b.records)
	}
	a.logger.Info("processed jobs", "pool", a.cfg.Pool, "schedds", len(schedds), "jobs", folded, "failed", len(res.Failed))
	observability.RecordsFolded.WithLabelValues("jobs").Add(float64(folded))
	observability.TableSize.WithLabelValues("jobs").Set(float64(t.Len()))

	res.Snapshot = t.Snapshot()
	return res, nil
}

func (a *Aggregator) foldJob(t *table.Table, r model.Record, now time.Time) {
	c := classify.Job(r)
	res := accounting.Job(r, a.schema, now)
	for _, m := range c.Metrics {
		table.FoldJob(t, m, res)
	}
}

// SlotCounts summarises the slot ads held by the pool's collector and, when
// configured, the memory and disk actually used by running jobs.
func (a *Aggregator) SlotCounts(ctx context.Context) (Result, error) {
	defer observePass("slots", time.Now())

	coll := pool.CollectorSource(a.cfg.Pool)
	q := pool.SlotsQuery(a.cfg.SlotConstraint)
	slots, err := fetch.Do(ctx, a.logger, coll, a.cfg.Policy, func(ctx context.Context) (model.Records, error) {
		return a.svc.Query(ctx, coll, q)
	})
	if err != nil {
		return Result{Snapshot: table.Snapshot{}, Failed: []string{coll.String()}}, fmt.Errorf("read slots of pool %s: %w", a.cfg.Pool, err)
	}

	t := table.New()
	opts := table.SlotOptions{Weighting: a.cfg.Weighting, TotalsOnly: a.cfg.TotalsOnly}
	for _, r := range slots {
		table.FoldSlot(t, r, classify.Slot(r), opts)
	}
	res := Result{}
	if a.cfg.JobResources {
		res.Failed = a.jobResources(ctx, t)
	}
	a.logger.Info("processed slots", "pool", a.cfg.Pool, "slots", len(slots), "failed", len(res.Failed))
	observability.RecordsFolded.WithLabelValues("slots").Add(float64(len(slots)))
	observability.TableSize.WithLabelValues("slots").Set(float64(t.Len()))

	res.Snapshot = t.Snapshot()
	return res, nil
}

// jobResources sets jobs.totals.MemoryUsage (MB) and jobs.totals.DiskUsage
// (KB) from the running jobs of every reachable schedd. Nothing is set when
// the schedds cannot be listed.
func (a *Aggregator) jobResources(ctx context.Context, t *table.Table) []string {
	schedds, err := a.schedds(ctx)
	if err != nil {
		return []string{pool.CollectorSource(a.cfg.Pool).String()}
	}
	var failed []string
	var memKB, diskKB float64
	for _, b := range a.fanOut(ctx, schedds, []pool.Query{pool.RunningJobUsage}) {
		if b.err != nil {
			failed = append(failed, b.src.String())
			continue
		}
		for _, r := range b.records {
			memKB += r.FloatOr(model.AttrResidentSetSizeRaw, 0)
			diskKB += r.FloatOr(model.AttrDiskUsageRaw, 0)
		}
	}
	t.SetDerived("jobs.totals.MemoryUsage", memKB/1024)
	t.SetDerived("jobs.totals.DiskUsage", diskKB)
	return failed
}

func (a *Aggregator) schedds(ctx context.Context) ([]pool.Source, error) {
	coll := pool.CollectorSource(a.cfg.Pool)
	return fetch.Do(ctx, a.logger, coll, a.cfg.Policy, func(ctx context.Context) ([]pool.Source, error) {
		return a.svc.ListSources(ctx, a.cfg.Pool, pool.Schedd, a.cfg.ScheddConstraint)
	})
}

// batch is everything one source returned in a pass.
type batch struct {
	src     pool.Source
	records model.Records
	err     error
}

// fanOut runs queries against every source concurrently. Each source's
// queries run in order and stop at the first exhausted one; a source that
// fails any query contributes no records at all. Batches come back in source
// order so folding is deterministic.
func (a *Aggregator) fanOut(ctx context.Context, srcs []pool.Source, queries []pool.Query) []batch {
	out := make([]batch, len(srcs))
	var g errgroup.Group
	if a.cfg.Concurrency > 0 {
		g.SetLimit(a.cfg.Concurrency)
	}
	for i, src := range srcs {
		g.Go(func() error {
			out[i] = a.fetchSource(ctx, src, queries)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (a *Aggregator) fetchSource(ctx context.Context, src pool.Source, queries []pool.Query) batch {
	b := batch{src: src}
	for _, q := range queries {
		rs, err := fetch.Do(ctx, a.logger, src, a.cfg.Policy, func(ctx context.Context) (model.Records, error) {
			return a.svc.Query(ctx, src, q)
		})
		if err != nil {
			return batch{src: src, err: err}
		}
		b.records = append(b.records, rs...)
	}
	return b
}

func observePass(pass string, start time.Time) {
	observability.PassDuration.WithLabelValues(pass).Observe(time.Since(start).Seconds())
}
