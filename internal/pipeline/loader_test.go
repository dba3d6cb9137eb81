package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/hotspot-etl/internal/domain"
	"github.com/couchcryptid/hotspot-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkingDataset() *memDataset {
	return newMemDataset("Hotspot_Data", domain.DefaultLayout().WorkingArea)
}

func newTestLoader(f pipeline.PageFetcher, pageSize, maxOffset int) *pipeline.Loader {
	return pipeline.NewLoader(f, domain.DefaultLayout(), pageSize, maxOffset, discardLogger(), newTestMetrics())
}

func TestLoader_ShortPageEndsPaging(t *testing.T) {
	f := &stubFetcher{total: 2400}
	ds := newWorkingDataset()

	n, err := newTestLoader(f, 1000, 100000).Load(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 2400, n)
	assert.Equal(t, []int{0, 1000, 2000}, f.calls())

	rows := ds.data["Daily"]
	require.Len(t, rows, 2401)
	assert.Equal(t, domain.Header, rows[0])
}

func TestLoader_NumberMatchedSkipsTrailingCall(t *testing.T) {
	f := &stubFetcher{total: 2000, reportTotal: true}

	n, err := newTestLoader(f, 1000, 100000).Load(context.Background(), newWorkingDataset())
	require.NoError(t, err)

	assert.Equal(t, 2000, n)
	assert.Equal(t, []int{0, 1000}, f.calls())
}

func TestLoader_ExactMultipleWithoutTotal(t *testing.T) {
	f := &stubFetcher{total: 2000}

	n, err := newTestLoader(f, 1000, 100000).Load(context.Background(), newWorkingDataset())
	require.NoError(t, err)

	assert.Equal(t, 2000, n)
	assert.Equal(t, []int{0, 1000, 2000}, f.calls(), "trailing empty page ends paging")
}

func TestLoader_SafetyCapStopsEndlessFeed(t *testing.T) {
	f := &stubFetcher{total: -1}

	n, err := newTestLoader(f, 10, 100).Load(context.Background(), newWorkingDataset())
	require.NoError(t, err)

	// Offsets 0..100 inclusive are requested, then the cap trips.
	assert.Len(t, f.calls(), 11)
	assert.Equal(t, 110, n)
}

func TestLoader_EmptyFeedWritesNothing(t *testing.T) {
	f := &stubFetcher{total: 0}
	ds := newWorkingDataset()

	n, err := newTestLoader(f, 1000, 100000).Load(context.Background(), ds)
	require.NoError(t, err)

	assert.Zero(t, n)
	assert.Equal(t, []int{0}, f.calls())
	assert.Empty(t, ds.data["Daily"])
	assert.Empty(t, ds.formats)
}

func TestLoader_FetchErrorWritesNothing(t *testing.T) {
	apiErr := &domain.APIError{Status: 500, Offset: 1000}
	f := &stubFetcher{total: 5000, failAt: 1000, failErr: apiErr}
	ds := newWorkingDataset()

	_, err := newTestLoader(f, 1000, 100000).Load(context.Background(), ds)
	require.Error(t, err)

	var target *domain.APIError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, 500, target.Status)
	assert.Empty(t, ds.data["Daily"], "no partial write")
}

func TestLoader_WriteErrorIsFatal(t *testing.T) {
	ds := newWorkingDataset()
	ds.writeErr = errors.New("disk full")

	_, err := newTestLoader(&stubFetcher{total: 5}, 1000, 100000).Load(context.Background(), ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestLoader_FormatErrorIsOnlyAWarning(t *testing.T) {
	ds := newWorkingDataset()
	ds.formatErr = errors.New("style table full")

	n, err := newTestLoader(&stubFetcher{total: 5}, 1000, 100000).Load(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Len(t, ds.data["Daily"], 6)
}

func TestLoader_FormatsCoordinateColumns(t *testing.T) {
	ds := newWorkingDataset()

	_, err := newTestLoader(&stubFetcher{total: 3}, 1000, 100000).Load(context.Background(), ds)
	require.NoError(t, err)

	f, ok := ds.formats["Daily"]
	require.True(t, ok)
	assert.True(t, f.HeaderBold)
	assert.Equal(t, "0.000000000", f.DecimalFormat)

	var names []string
	for _, i := range f.DecimalColumns {
		names = append(names, domain.Header[i])
	}
	assert.Equal(t, []string{domain.FieldLatitude, domain.FieldLongitude}, names)
}

func TestLoader_NormalizesRows(t *testing.T) {
	ds := newWorkingDataset()

	_, err := newTestLoader(&stubFetcher{total: 1}, 1000, 100000).Load(context.Background(), ds)
	require.NoError(t, err)

	cols, err := domain.Resolve("Daily", ds.data["Daily"][0], "ct_en", "th_date", "pv_tn")
	require.NoError(t, err)

	row := ds.data["Daily"][1]
	assert.Equal(t, "Thailand", row[cols["ct_en"].Index])
	assert.Equal(t, "2026-10-17", row[cols["th_date"].Index])
	assert.NotEmpty(t, row[cols["pv_tn"].Index])
}
