package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/hotspot-etl/internal/domain"
	"github.com/couchcryptid/hotspot-etl/internal/observability"
)

// ViewBuilder regenerates the aggregation views from the working area.
type ViewBuilder struct {
	layout  domain.Layout
	filters domain.ViewFilters
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewViewBuilder creates a ViewBuilder.
func NewViewBuilder(layout domain.Layout, filters domain.ViewFilters, logger *slog.Logger, metrics *observability.Metrics) *ViewBuilder {
	return &ViewBuilder{
		layout:  layout,
		filters: filters,
		logger:  logger.With("component", "views"),
		metrics: metrics,
	}
}

// Resolve locates the mandatory columns in the working area header. An empty
// or foreign-schema working area yields a *domain.SchemaError.
func (b *ViewBuilder) Resolve(ctx context.Context, ds domain.Dataset) (domain.ColumnMap, error) {
	header, err := ds.Header(ctx, b.layout.WorkingArea)
	if err != nil {
		return nil, fmt.Errorf("read working area header: %w", err)
	}
	return domain.Resolve(b.layout.WorkingArea, header, domain.MandatoryFields...)
}

// BuildViews writes every view. cols must come from a successful Resolve.
func (b *ViewBuilder) BuildViews(ctx context.Context, ds domain.Dataset, cols domain.ColumnMap) ([]domain.ViewQuery, error) {
	queries := domain.SemanticViews(b.layout, cols, b.filters)
	for _, q := range queries {
		b.logger.Debug("building view", "view", q.Name, "query", q.Formula())
		if err := ds.WriteView(ctx, q); err != nil {
			return nil, fmt.Errorf("write view %q: %w", q.Name, err)
		}
		b.metrics.ViewsBuilt.Inc()
	}
	b.logger.Info("aggregation views built", "views", len(queries))
	return queries, nil
}
