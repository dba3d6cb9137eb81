package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/hotspot-etl/internal/adapter/gistda"
	kafkaadapter "github.com/couchcryptid/hotspot-etl/internal/adapter/kafka"
	"github.com/couchcryptid/hotspot-etl/internal/adapter/line"
	"github.com/couchcryptid/hotspot-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/hotspot-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/hotspot-etl/internal/config"
	"github.com/couchcryptid/hotspot-etl/internal/domain"
	"github.com/couchcryptid/hotspot-etl/internal/observability"
	"github.com/couchcryptid/hotspot-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

// app holds the wired pipeline and whatever must be closed on exit.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	clock    clockwork.Clock
	pipeline *pipeline.Pipeline
	closers  []func() error
}

// newApp wires the pipeline from cfg.
func newApp(cfg *config.Config) (*app, error) {
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	store, err := newStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, clock: clockwork.NewRealClock()}
	notifiers := a.notifiers()

	fetcher := gistda.NewClient(cfg.GistdaKey, cfg.GistdaEndpoint, cfg.GistdaTimeout, metrics, logger)
	a.pipeline = pipeline.New(store, fetcher, notifiers, pipeline.Options{
		Layout:         domain.DefaultLayout(),
		Filters:        domain.ViewFilters{HomeCountry: cfg.HomeCountry, ExcludedCountry: cfg.ExcludedCountry},
		PageSize:       cfg.PageSize,
		MaxOffset:      cfg.MaxOffset,
		ArchiveLagDays: cfg.ArchiveLagDays,
		Location:       cfg.Location,
	}, a.clock, logger, metrics)

	logger.Info("pipeline configured",
		"store", cfg.Store,
		"data_root", cfg.DataRoot,
		"test_mode", cfg.TestMode,
		"notifiers", len(notifiers),
	)
	return a, nil
}

func newStore(cfg *config.Config, logger *slog.Logger) (domain.Store, error) {
	switch cfg.Store {
	case config.StoreXLSX:
		return xlsx.NewStore(cfg.DataRoot, logger), nil
	case config.StoreSQLite:
		return sqlite.NewStore(cfg.DataRoot, logger), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// notifiers enables LINE when a token is set and Kafka when brokers are set.
func (a *app) notifiers() []domain.Notifier {
	var out []domain.Notifier
	if a.cfg.LineAccessToken != "" {
		client := line.NewClient(a.cfg.LineAccessToken, "", a.cfg.GistdaTimeout, a.logger)
		out = append(out, line.NewNotifier(client, a.cfg.LineTargetID, a.cfg.LineTestID))
	}
	if len(a.cfg.KafkaBrokers) > 0 {
		w := kafkaadapter.NewWriter(a.cfg.KafkaBrokers, a.cfg.KafkaSummaryTopic, a.logger)
		a.closers = append(a.closers, w.Close)
		out = append(out, w)
	}
	return out
}

// execute runs the pipeline once and closes the returned dataset.
func (a *app) execute(ctx context.Context) error {
	ds, err := a.pipeline.Execute(ctx, a.cfg.ContainerID, a.cfg.TestMode)
	if err != nil {
		a.logger.Error("pipeline run failed", "error", err)
		return err
	}
	return ds.Close()
}

// startSchedule runs schedule in the background. The returned channel is
// closed once the last run has finished and its dataset is closed.
func (a *app) startSchedule(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.schedule(ctx, interval)
	}()
	return done
}

// schedule runs the pipeline now and then every interval until ctx ends.
// Runs never overlap. A zero interval runs once.
func (a *app) schedule(ctx context.Context, interval time.Duration) {
	a.execute(ctx) //nolint:errcheck // logged in execute
	if interval <= 0 {
		return
	}

	ticker := a.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			a.execute(ctx) //nolint:errcheck // logged in execute
		}
	}
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Error("close error", "error", err)
		}
	}
}
