package domain

import (
	"context"
	"time"
)

// RunSummary describes a completed pipeline run for downstream notification.
type RunSummary struct {
	RunID       string         `json:"run_id"`
	Dataset     string         `json:"dataset"`
	Container   string         `json:"container"`
	TestMode    bool           `json:"test_mode"`
	Rows        int            `json:"rows"`
	Countries   []AggregateRow `json:"countries,omitempty"`
	Provinces   []AggregateRow `json:"provinces,omitempty"`
	LandUse     []AggregateRow `json:"land_use,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Notifier delivers run summaries to an external channel.
type Notifier interface {
	Channel() string
	Notify(ctx context.Context, s RunSummary) error
}
