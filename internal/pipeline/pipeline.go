// Package pipeline runs dataset ingestion: every configured family is read
// from its file and loaded into the persistence backend, concurrently and
// independently of the others.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/homie-data/internal/dataset"
	"github.com/couchcryptid/homie-data/internal/domain"
	"github.com/couchcryptid/homie-data/internal/observability"
)

// Ingestion stages, used as the stage label of ingest errors.
const (
	stageRead    = "read"
	stageLoad    = "load"
	stagePublish = "publish"
)

// Publisher announces loaded records downstream.
type Publisher interface {
	Publish(ctx context.Context, records []domain.Ingested) error
}

// ReadinessChecker is implemented by backends that can report their health.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Pipeline orchestrates one ingestion run over a set of jobs.
type Pipeline struct {
	store     domain.Persist
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	workers   int
	ready     atomic.Bool
	last      atomic.Pointer[Report]
}

// New creates a Pipeline loading into store. publisher may be nil. At most
// workers families are ingested at once.
func New(store domain.Persist, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics, workers int) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		store:     store,
		publisher: publisher,
		logger:    logger.With("component", "pipeline"),
		metrics:   metrics,
		workers:   workers,
	}
}

// CheckReadiness returns nil once a run has finished and the backend
// answers its own readiness check.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	if !p.ready.Load() {
		return errors.New("ingestion has not finished yet")
	}
	if checker, ok := p.store.(ReadinessChecker); ok {
		return checker.CheckReadiness(ctx)
	}
	return nil
}

// LastReport returns the report of the most recent finished run.
func (p *Pipeline) LastReport() (Report, bool) {
	r := p.last.Load()
	if r == nil {
		return Report{}, false
	}
	return *r, true
}

// Run ingests every job and returns once all have finished. A failing
// family is recorded in its FamilyReport and never stops the others.
func (p *Pipeline) Run(ctx context.Context, jobs []Job) Report {
	clock := domain.Clock()
	report := Report{Started: clock.Now(), Families: make([]FamilyReport, len(jobs))}

	p.logger.Info("ingestion started", "families", len(jobs), "workers", p.workers)
	p.metrics.IngestRunning.Set(1)
	defer p.metrics.IngestRunning.Set(0)

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, job := range jobs {
		g.Go(func() error {
			report.Families[i] = p.runJob(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	report.Finished = clock.Now()
	p.last.Store(&report)
	p.ready.Store(true)

	failed := report.Failed()
	p.logger.Info("ingestion finished",
		"families", len(jobs),
		"failed", len(failed),
		"duration", report.Finished.Sub(report.Started),
	)
	return report
}

func (p *Pipeline) runJob(ctx context.Context, job Job) FamilyReport {
	clock := domain.Clock()
	start := clock.Now()
	logger := p.logger.With("family", string(job.Family), "path", job.Path)

	l := &loader{
		family:    job.Family,
		store:     p.store,
		publisher: p.publisher,
		metrics:   p.metrics,
	}
	err := job.run(ctx, l)
	duration := clock.Since(start)
	p.metrics.FamilyDuration.WithLabelValues(string(job.Family)).Observe(duration.Seconds())

	fr := FamilyReport{
		Family:   job.Family,
		Path:     job.Path,
		Read:     l.read,
		Loaded:   l.loaded,
		Duration: duration,
		Err:      err,
	}
	if err != nil {
		logger.Error("family ingestion failed", "records", l.read, "loaded", l.loaded, "error", err)
	} else {
		logger.Info("family ingested", "records", l.read, "loaded", l.loaded, "duration", duration)
	}
	return fr
}

// loader counts and loads the records of one family.
type loader struct {
	family    dataset.Family
	store     domain.Persist
	publisher Publisher
	metrics   *observability.Metrics
	read      int
	loaded    int
}

func (l *loader) fail(stage string, err error) error {
	l.metrics.IngestErrors.WithLabelValues(string(l.family), stage).Inc()
	return err
}

func (l *loader) readFailed(err error) error {
	return l.fail(stageRead, fmt.Errorf("read: %w", err))
}

// createOrUpdateSeries creates s, replacing an existing series of the same key.
func (l *loader) createOrUpdateSeries(ctx context.Context, s domain.HomeValueSeries) error {
	err := l.store.CreateSeries(ctx, s)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return l.store.UpdateSeries(ctx, s)
	}
	return err
}

// loadAll creates rows one by one, stopping at the first failure, then
// publishes what was loaded.
func loadAll[T any](ctx context.Context, l *loader, rows []T, create func(context.Context, T) error, key func(T) string) error {
	family := string(l.family)
	l.read = len(rows)
	l.metrics.RecordsRead.WithLabelValues(family).Add(float64(len(rows)))

	var published []domain.Ingested
	if l.publisher != nil {
		published = make([]domain.Ingested, 0, len(rows))
	}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return l.fail(stageLoad, fmt.Errorf("load: %w", err))
		}
		if err := create(ctx, row); err != nil {
			return l.fail(stageLoad, fmt.Errorf("load %s: %w", key(row), err))
		}
		l.loaded++
		l.metrics.RecordsLoaded.WithLabelValues(family).Inc()
		if l.publisher != nil {
			published = append(published, domain.Ingested{
				Family:     family,
				Key:        key(row),
				Record:     row,
				IngestedAt: domain.Clock().Now().UTC(),
			})
		}
	}

	if len(published) == 0 {
		return nil
	}
	if err := l.publisher.Publish(ctx, published); err != nil {
		return l.fail(stagePublish, fmt.Errorf("publish: %w", err))
	}
	return nil
}

// FamilyReport summarises the ingestion of one family.
type FamilyReport struct {
	Family   dataset.Family
	Path     string
	Read     int
	Loaded   int
	Duration time.Duration
	Err      error
}

// Report summarises one ingestion run, in job order.
type Report struct {
	Started  time.Time
	Finished time.Time
	Families []FamilyReport
}

// Failed returns the families that ended with an error.
func (r Report) Failed() []FamilyReport {
	var out []FamilyReport
	for _, f := range r.Families {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// OK reports whether every family succeeded.
func (r Report) OK() bool { return len(r.Failed()) == 0 }

// Err joins the errors of every failed family.
func (r Report) Err() error {
	var errs []error
	for _, f := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", f.Family, f.Err))
	}
	return errors.Join(errs...)
}
