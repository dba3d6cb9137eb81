package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/couchcryptid/hotspot-etl/internal/adapter/gistda/gistdatest"
	"github.com/couchcryptid/hotspot-etl/internal/domain"
	"github.com/couchcryptid/hotspot-etl/internal/observability"
)

// --- feed stub ---

// stubFetcher serves pages from an in-memory gistdatest-style feed without HTTP.
type stubFetcher struct {
	total       int // negative: endless
	reportTotal bool
	failAt      int
	failErr     error
	credErr     error

	mu      sync.Mutex
	offsets []int
}

func (f *stubFetcher) FetchPage(_ context.Context, offset, limit int) (domain.Page, error) {
	f.mu.Lock()
	f.offsets = append(f.offsets, offset)
	f.mu.Unlock()

	if f.failErr != nil && offset == f.failAt {
		return domain.Page{}, f.failErr
	}
	n := limit
	if f.total >= 0 {
		n = min(limit, max(f.total-offset, 0))
	}
	page := domain.Page{}
	for i := range n {
		page.Features = append(page.Features, gistdatest.SampleFeature(offset+i))
	}
	if f.reportTotal {
		page.NumberMatched = f.total
	}
	return page, nil
}

func (f *stubFetcher) CheckCredentials() error { return f.credErr }

func (f *stubFetcher) calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.offsets...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh set to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}
