package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/hotspot-etl/internal/adapter/gistda/gistdatest"
	"github.com/couchcryptid/hotspot-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/hotspot-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDataset_Missing(t *testing.T) {
	store := xlsx.NewStore(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := openDataset(context.Background(), store, "folder-1", "Hotspot_Data")
	require.ErrorIs(t, err, domain.ErrDatasetNotFound)
	assert.Contains(t, err.Error(), "folder-1/Hotspot_Data")
}

func TestOpenDataset_Existing(t *testing.T) {
	ctx := context.Background()
	store := xlsx.NewStore(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	created, err := store.Create(ctx, "Hotspot_Data")
	require.NoError(t, err)
	require.NoError(t, store.Move(ctx, created, "folder-1"))
	require.NoError(t, created.Close())

	ds, err := openDataset(ctx, store, "folder-1", "Hotspot_Data")
	require.NoError(t, err)
	defer ds.Close()
	assert.Equal(t, "Hotspot_Data", ds.Name())
}

func TestValidatePhases_ConsistentDataset(t *testing.T) {
	layout := domain.DefaultLayout()
	rows := make([][]string, 0, 17)
	rows = append(rows, domain.Header)
	for i := range 16 {
		r := domain.Normalize(gistdatest.SampleFeature(i).Properties)
		cells := make([]string, len(r))
		for j, c := range r {
			cells[j] = domain.CellText(c)
		}
		rows = append(rows, cells)
	}

	cols, p := validateHeader(layout, rows)
	require.NotNil(t, cols)
	assert.True(t, p.passed(), p.errors)
	assert.True(t, validateRows(rows[0], rows[1:]).passed())

	dup := append([][]string{}, rows[1:]...)
	dup = append(dup, rows[1])
	assert.False(t, validateRows(rows[0], dup).passed(), "duplicate hotspot id")

	assert.True(t, validateAreas(layout, append([]string{layout.WorkingArea}, layout.Views()...)).passed())
	assert.False(t, validateAreas(layout, []string{layout.WorkingArea, "Sheet2"}).passed())
}
