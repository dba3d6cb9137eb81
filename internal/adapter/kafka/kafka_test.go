package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/hotspot-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	err    error
	msgs   []kafkago.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testSummary() domain.RunSummary {
	return domain.RunSummary{
		RunID:       "run-1",
		Dataset:     "Hotspot_Data",
		Container:   "folder-1",
		Rows:        2400,
		Countries:   []domain.AggregateRow{{Key: "Thailand", Count: 1200}},
		StartedAt:   time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2026, 10, 17, 8, 0, 5, 0, time.UTC),
	}
}

func TestSerializeToMessage(t *testing.T) {
	s := testSummary()

	msg, err := serializeToMessage(s)
	require.NoError(t, err)

	assert.Equal(t, []byte("Hotspot_Data"), msg.Key)
	assert.Contains(t, string(msg.Value), `"rows":2400`)
	assert.Contains(t, string(msg.Value), `"countries":[{"key":"Thailand","count":1200}]`)
	assert.Len(t, msg.Headers, 3)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[0].Value)
	assert.Equal(t, []byte("false"), msg.Headers[1].Value)
	assert.Equal(t, "completed_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2026-10-17T08:00:05Z"), msg.Headers[2].Value)

	var decoded domain.RunSummary
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, s.RunID, decoded.RunID)
}

func TestWriter_Notify(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, w.Notify(context.Background(), testSummary()))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, "kafka", w.Channel())

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_NotifyError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := w.Notify(context.Background(), testSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}
