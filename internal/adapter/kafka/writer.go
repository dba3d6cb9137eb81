// Package kafka publishes pipeline run summaries to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/hotspot-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces one message per completed run.
// It implements domain.Notifier.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the run-summary topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger.With("component", "kafka")}
}

func (w *Writer) Channel() string { return "kafka" }

// Notify publishes the summary keyed by dataset name, so summaries for one
// dataset stay ordered on a single partition.
func (w *Writer) Notify(ctx context.Context, s domain.RunSummary) error {
	msg, err := serializeToMessage(s)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish run summary: %w", err)
	}
	w.logger.Debug("run summary published", "run_id", s.RunID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RunSummary into a Kafka message.
func serializeToMessage(s domain.RunSummary) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize run summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.Dataset),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(s.RunID)},
			{Key: "test_mode", Value: []byte(strconv.FormatBool(s.TestMode))},
			{Key: "completed_at", Value: []byte(s.CompletedAt.Format(time.RFC3339))},
		},
	}, nil
}
