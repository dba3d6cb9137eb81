package httpadapter_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/couchcryptid/hotspot-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/hotspot-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockRuns struct {
	summary *domain.RunSummary
}

func (m *mockRuns) LastRun() (domain.RunSummary, bool) {
	if m.summary == nil {
		return domain.RunSummary{}, false
	}
	return *m.summary, true
}

func newTestServer(readyErr error, last *domain.RunSummary) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, &mockRuns{summary: last}, slog.Default())
}

func serve(srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(newTestServer(nil, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := serve(newTestServer(nil, nil), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := serve(newTestServer(fmt.Errorf("pipeline has not completed a run yet"), nil), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusBeforeFirstRun(t *testing.T) {
	rec := serve(newTestServer(nil, nil), "/status")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusReturnsLastRun(t *testing.T) {
	last := &domain.RunSummary{RunID: "run-1", Dataset: "Hotspot_Data", Rows: 42}
	rec := serve(newTestServer(nil, last), "/status")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body domain.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, 42, body.Rows)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(nil, nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
