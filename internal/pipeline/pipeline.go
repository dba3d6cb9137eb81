package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/hotspot-etl/internal/domain"
	"github.com/couchcryptid/hotspot-etl/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// summaryTop is how many rows of each view a run summary carries.
const summaryTop = 5

// Options configures a Pipeline. It is copied at construction.
type Options struct {
	Layout         domain.Layout
	Filters        domain.ViewFilters
	PageSize       int
	MaxOffset      int
	ArchiveLagDays int
	Location       *time.Location
}

// Pipeline sequences dataset preparation, feed loading, and view generation.
type Pipeline struct {
	fetcher   PageFetcher
	lifecycle *Lifecycle
	loader    *Loader
	views     *ViewBuilder
	notifiers []domain.Notifier
	opts      Options
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	ready   atomic.Bool
	lastRun atomic.Pointer[domain.RunSummary]
}

// New creates a Pipeline with its stages wired from store and fetcher.
// Notifiers receive a summary after each successful run; their failures are
// logged only.
func New(store domain.Store, fetcher PageFetcher, notifiers []domain.Notifier, opts Options, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Pipeline{
		fetcher:   fetcher,
		lifecycle: NewLifecycle(store, opts.Layout, logger, metrics),
		loader:    NewLoader(fetcher, opts.Layout, opts.PageSize, opts.MaxOffset, logger, metrics),
		views:     NewViewBuilder(opts.Layout, opts.Filters, logger, metrics),
		notifiers: notifiers,
		opts:      opts,
		clock:     clock,
		logger:    logger.With("component", "pipeline"),
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastRun returns the summary of the most recent successful run.
func (p *Pipeline) LastRun() (domain.RunSummary, bool) {
	s := p.lastRun.Load()
	if s == nil {
		return domain.RunSummary{}, false
	}
	return *s, true
}

// Execute runs the whole pipeline once against containerID and returns the
// refreshed dataset, which the caller must Close. Test mode only changes
// dataset names. Every error is fatal for the run; nothing is retried.
func (p *Pipeline) Execute(ctx context.Context, containerID string, testMode bool) (ds domain.Dataset, err error) {
	start := p.clock.Now()
	p.metrics.PipelineRunning.Set(1)
	defer func() {
		p.metrics.PipelineRunning.Set(0)
		p.metrics.RunDuration.Observe(p.clock.Since(start).Seconds())
		p.metrics.RunsTotal.WithLabelValues(outcome(err)).Inc()
	}()

	if containerID == "" {
		return nil, &domain.ConfigError{Field: "HOTSPOT_CONTAINER_ID", Reason: "container ID cannot be empty"}
	}
	if err := p.fetcher.CheckCredentials(); err != nil {
		return nil, err
	}

	names := domain.NamesFor(start, p.opts.Location, p.opts.ArchiveLagDays, testMode)
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID, "dataset", names.Master)
	if testMode {
		logger.Info("running in test mode")
	}
	logger.Info("run started", "date", start.In(p.opts.Location).Format(time.DateOnly), "archive", names.Archive)

	ds, err = p.lifecycle.Prepare(ctx, containerID, names.Master, names.Archive)
	if err != nil {
		return nil, fmt.Errorf("prepare dataset: %w", err)
	}

	rows, err := p.loader.Load(ctx, ds)
	if err != nil {
		ds.Close()
		return nil, fmt.Errorf("load hotspots: %w", err)
	}
	p.metrics.LastRunRows.Set(float64(rows))

	cols, err := p.views.Resolve(ctx, ds)
	if err != nil {
		ds.Close()
		return nil, fmt.Errorf("resolve view columns: %w", err)
	}
	queries, err := p.views.BuildViews(ctx, ds, cols)
	if err != nil {
		ds.Close()
		return nil, fmt.Errorf("build views: %w", err)
	}

	summary := domain.RunSummary{
		RunID:       runID,
		Dataset:     ds.Name(),
		Container:   ds.Container(),
		TestMode:    testMode,
		Rows:        rows,
		StartedAt:   start.In(p.opts.Location),
		CompletedAt: p.clock.Now().In(p.opts.Location),
	}
	p.fillSummary(ctx, ds, queries, &summary, logger)

	p.lastRun.Store(&summary)
	p.ready.Store(true)
	logger.Info("run finished", "rows", rows, "duration", summary.CompletedAt.Sub(start))

	p.notify(ctx, summary, logger)
	return ds, nil
}

// fillSummary reads the top rows of each view back from the dataset.
func (p *Pipeline) fillSummary(ctx context.Context, ds domain.Dataset, queries []domain.ViewQuery, s *domain.RunSummary, logger *slog.Logger) {
	for _, q := range queries {
		top, err := readTop(ctx, ds, q.Name, summaryTop)
		if err != nil {
			logger.Warn("read view for summary failed", "view", q.Name, "error", err)
			continue
		}
		switch q.Name {
		case p.opts.Layout.CountryView:
			s.Countries = top
		case p.opts.Layout.ProvinceView:
			s.Provinces = top
		case p.opts.Layout.LandUseView:
			s.LandUse = top
		}
	}
}

func (p *Pipeline) notify(ctx context.Context, s domain.RunSummary, logger *slog.Logger) {
	for _, n := range p.notifiers {
		if err := n.Notify(ctx, s); err != nil {
			p.metrics.Notifications.WithLabelValues(n.Channel(), "error").Inc()
			logger.Warn("notification failed", "channel", n.Channel(), "error", err)
			continue
		}
		p.metrics.Notifications.WithLabelValues(n.Channel(), "success").Inc()
	}
}

func readTop(ctx context.Context, ds domain.Dataset, view string, n int) ([]domain.AggregateRow, error) {
	rows, err := ds.ReadArea(ctx, view)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	out := make([]domain.AggregateRow, 0, min(n, len(rows)-1))
	for _, r := range rows[1:] {
		if len(out) == n {
			break
		}
		if len(r) < 2 {
			return nil, fmt.Errorf("view %q: short row %v", view, r)
		}
		count, err := strconv.Atoi(r[1])
		if err != nil {
			return nil, fmt.Errorf("view %q: count %q: %w", view, r[1], err)
		}
		out = append(out, domain.AggregateRow{Key: r[0], Count: count})
	}
	return out, nil
}

func outcome(err error) string {
	var (
		cfgErr    *domain.ConfigError
		apiErr    *domain.APIError
		schemaErr *domain.SchemaError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &cfgErr):
		return "config_error"
	case errors.As(err, &apiErr):
		return "api_error"
	case errors.As(err, &schemaErr):
		return "schema_error"
	default:
		return "error"
	}
}
