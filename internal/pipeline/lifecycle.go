package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/couchcryptid/hotspot-etl/internal/domain"
	"github.com/couchcryptid/hotspot-etl/internal/observability"
)

// maxArchiveAttempts bounds the suffixes tried when an archive name is taken.
const maxArchiveAttempts = 100

// Lifecycle prepares the target dataset for a run: it opens (and archives) an
// existing dataset or creates a fresh one, and leaves exactly one empty
// working area behind.
type Lifecycle struct {
	store   domain.Store
	layout  domain.Layout
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLifecycle creates a Lifecycle over store.
func NewLifecycle(store domain.Store, layout domain.Layout, logger *slog.Logger, metrics *observability.Metrics) *Lifecycle {
	return &Lifecycle{
		store:   store,
		layout:  layout,
		logger:  logger.With("component", "lifecycle"),
		metrics: metrics,
	}
}

// Prepare returns a handle on masterName in containerID holding only an empty
// working area. An existing dataset is snapshotted as archiveName first; a
// failed snapshot is logged and does not stop the run.
func (l *Lifecycle) Prepare(ctx context.Context, containerID, masterName, archiveName string) (domain.Dataset, error) {
	ds, err := l.store.Open(ctx, containerID, masterName)
	switch {
	case errors.Is(err, domain.ErrDatasetNotFound):
		return l.create(ctx, containerID, masterName)
	case err != nil:
		return nil, fmt.Errorf("open dataset %q: %w", masterName, err)
	}

	if warn := l.archive(ctx, containerID, masterName, archiveName); warn != nil {
		l.metrics.ArchiveFailures.Inc()
		l.logger.Warn("archive snapshot failed, continuing", "archive", warn.Archive, "error", warn.Err)
	}

	if err := l.reset(ctx, ds); err != nil {
		ds.Close()
		return nil, err
	}
	if err := l.verify(ctx, ds); err != nil {
		ds.Close()
		return nil, err
	}
	return ds, nil
}

func (l *Lifecycle) create(ctx context.Context, containerID, masterName string) (domain.Dataset, error) {
	ds, err := l.store.Create(ctx, masterName)
	if err != nil {
		return nil, fmt.Errorf("create dataset %q: %w", masterName, err)
	}

	fail := func(err error) (domain.Dataset, error) {
		ds.Close()
		return nil, err
	}

	areas, err := ds.Areas(ctx)
	if err != nil {
		return fail(fmt.Errorf("list areas: %w", err))
	}
	if len(areas) != 1 {
		return fail(fmt.Errorf("new dataset %q has %d areas, want 1", masterName, len(areas)))
	}
	if areas[0] != l.layout.WorkingArea {
		if err := ds.RenameArea(ctx, areas[0], l.layout.WorkingArea); err != nil {
			return fail(fmt.Errorf("rename initial area: %w", err))
		}
	}
	if err := l.store.Move(ctx, ds, containerID); err != nil {
		return fail(fmt.Errorf("move dataset %q into %q: %w", masterName, containerID, err))
	}

	l.logger.Info("dataset created", "dataset", masterName, "container", containerID)
	return ds, nil
}

// archive copies the dataset under archiveName, adding a numeric suffix when
// that name is already taken so earlier snapshots are never overwritten.
func (l *Lifecycle) archive(ctx context.Context, containerID, masterName, archiveName string) *domain.ArchiveWarning {
	name := archiveName
	for attempt := 1; attempt <= maxArchiveAttempts; attempt++ {
		if attempt > 1 {
			name = fmt.Sprintf("%s_%d", archiveName, attempt)
		}
		err := l.store.Copy(ctx, containerID, masterName, name)
		if err == nil {
			l.logger.Info("archive snapshot created", "archive", name)
			return nil
		}
		if !errors.Is(err, domain.ErrExists) {
			return &domain.ArchiveWarning{Archive: name, Err: err}
		}
	}
	return &domain.ArchiveWarning{Archive: archiveName, Err: fmt.Errorf("no free name after %d attempts: %w", maxArchiveAttempts, domain.ErrExists)}
}

// reset makes sure the working area exists and is empty, then drops every
// other area; derived views must not survive with stale data.
func (l *Lifecycle) reset(ctx context.Context, ds domain.Dataset) error {
	areas, err := ds.Areas(ctx)
	if err != nil {
		return fmt.Errorf("list areas: %w", err)
	}

	if !slices.Contains(areas, l.layout.WorkingArea) {
		if err := ds.AddArea(ctx, l.layout.WorkingArea); err != nil {
			return fmt.Errorf("add working area: %w", err)
		}
	}
	if err := ds.ClearArea(ctx, l.layout.WorkingArea); err != nil {
		return fmt.Errorf("clear working area: %w", err)
	}

	for _, name := range areas {
		if name == l.layout.WorkingArea {
			continue
		}
		if err := ds.DeleteArea(ctx, name); err != nil {
			return fmt.Errorf("delete area %q: %w", name, err)
		}
		l.logger.Debug("stale area deleted", "area", name)
	}
	return nil
}

func (l *Lifecycle) verify(ctx context.Context, ds domain.Dataset) error {
	areas, err := ds.Areas(ctx)
	if err != nil {
		return fmt.Errorf("list areas: %w", err)
	}
	if len(areas) != 1 || areas[0] != l.layout.WorkingArea {
		return fmt.Errorf("dataset %q has areas %v after reset, want only %q", ds.Name(), areas, l.layout.WorkingArea)
	}
	return nil
}
