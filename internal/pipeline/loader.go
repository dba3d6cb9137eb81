package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/hotspot-etl/internal/domain"
	"github.com/couchcryptid/hotspot-etl/internal/observability"
)

const (
	// DefaultPageSize is the number of features requested per feed call.
	DefaultPageSize = 1000
	// DefaultMaxOffset stops paging from a feed that never reports its end.
	DefaultMaxOffset = 100000

	coordinateFormat = "0.000000000"
	headerFill       = "#D9EAD3"
)

// PageFetcher retrieves one page of the hotspot feed.
type PageFetcher interface {
	FetchPage(ctx context.Context, offset, limit int) (domain.Page, error)
	// CheckCredentials reports a *domain.ConfigError when the fetcher cannot
	// authenticate.
	CheckCredentials() error
}

// stopReason explains why paging ended.
type stopReason string

const (
	stopNone      stopReason = ""
	stopEmptyPage stopReason = "empty_page"
	stopSafetyCap stopReason = "safety_cap"
	stopMatched   stopReason = "number_matched"
	stopShortPage stopReason = "short_page"
)

// nextStop decides whether paging ends after a non-empty page. offset is the
// cursor already advanced past the page.
func nextStop(offset, pageSize, maxOffset, fetched, numberMatched int) stopReason {
	switch {
	case offset > maxOffset:
		return stopSafetyCap
	case numberMatched > 0 && offset >= numberMatched:
		return stopMatched
	case fetched < pageSize:
		return stopShortPage
	default:
		return stopNone
	}
}

// Loader pages through the feed, normalizes every feature, and bulk-writes the
// result into the working area once paging ends.
type Loader struct {
	fetcher   PageFetcher
	layout    domain.Layout
	pageSize  int
	maxOffset int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewLoader creates a Loader. Non-positive pageSize or maxOffset select the defaults.
func NewLoader(fetcher PageFetcher, layout domain.Layout, pageSize, maxOffset int, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if maxOffset <= 0 {
		maxOffset = DefaultMaxOffset
	}
	return &Loader{
		fetcher:   fetcher,
		layout:    layout,
		pageSize:  pageSize,
		maxOffset: maxOffset,
		logger:    logger.With("component", "loader"),
		metrics:   metrics,
	}
}

// Load fills the working area of ds and returns the number of rows written.
// A fetch error aborts the run before anything is written. Zero rows leaves
// the working area empty and is not an error.
func (l *Loader) Load(ctx context.Context, ds domain.Dataset) (int, error) {
	rows, err := l.fetchAll(ctx)
	if err != nil {
		return 0, err
	}

	if len(rows) == 0 {
		l.logger.Info("no hotspot data returned")
		return 0, nil
	}

	area := l.layout.WorkingArea
	if err := ds.WriteTable(ctx, area, domain.Header, rows); err != nil {
		return 0, fmt.Errorf("write working area: %w", err)
	}

	if err := ds.FormatTable(ctx, area, l.tableFormat()); err != nil {
		// Presentation only; stored values are already in place.
		l.logger.Warn("format working area failed", "error", err)
	}

	l.metrics.RowsIngested.Add(float64(len(rows)))
	l.logger.Info("hotspot data saved", "rows", len(rows))
	return len(rows), nil
}

func (l *Loader) fetchAll(ctx context.Context) ([]domain.Row, error) {
	var rows []domain.Row
	offset := 0

	l.logger.Info("data retrieval started", "page_size", l.pageSize, "max_offset", l.maxOffset)
	for {
		page, err := l.fetcher.FetchPage(ctx, offset, l.pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch page: %w", err)
		}
		l.metrics.PagesFetched.Inc()

		if len(page.Features) == 0 {
			l.logger.Info("data retrieval finished", "reason", stopEmptyPage, "rows", len(rows))
			return rows, nil
		}

		for _, f := range page.Features {
			rows = append(rows, domain.Normalize(f.Properties))
		}
		l.logger.Debug("data retrieved", "offset", offset, "rows", len(rows))

		offset += l.pageSize

		switch reason := nextStop(offset, l.pageSize, l.maxOffset, len(page.Features), page.NumberMatched); reason {
		case stopNone:
			continue
		case stopSafetyCap:
			l.metrics.SafetyCapHits.Inc()
			l.logger.Warn("data retrieval exceeded the maximum offset", "max_offset", l.maxOffset, "rows", len(rows))
			return rows, nil
		default:
			l.logger.Info("data retrieval finished", "reason", reason, "rows", len(rows), "number_matched", page.NumberMatched)
			return rows, nil
		}
	}
}

func (l *Loader) tableFormat() domain.TableFormat {
	var decimals []int
	for i, h := range domain.Header {
		if h == domain.FieldLatitude || h == domain.FieldLongitude {
			decimals = append(decimals, i)
		}
	}
	return domain.TableFormat{
		HeaderBold:     true,
		HeaderFill:     headerFill,
		DecimalColumns: decimals,
		DecimalFormat:  coordinateFormat,
	}
}
