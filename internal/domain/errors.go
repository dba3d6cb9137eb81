package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDatasetNotFound is returned by a Store when no dataset has the requested name.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrAreaNotFound is returned when a named area does not exist in a dataset.
	ErrAreaNotFound = errors.New("area not found")

	// ErrExists is returned when a create, copy or move would overwrite an existing target.
	ErrExists = errors.New("already exists")
)

// ConfigError reports missing or invalid run configuration. Fatal, raised before
// any remote call.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("config: %s is required", e.Field)
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// APIError reports a non-200 response from the hotspot feed.
type APIError struct {
	Status int
	Offset int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("feed API error: status %d at offset %d", e.Status, e.Offset)
	}
	return fmt.Sprintf("feed API error: status %d at offset %d: %s", e.Status, e.Offset, e.Body)
}

// SchemaError reports mandatory columns missing from the working area header.
type SchemaError struct {
	Area    string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: area %q is missing mandatory columns (%s)", e.Area, strings.Join(e.Missing, ", "))
}

// ArchiveWarning reports a failed archive snapshot. It is logged, never returned
// as a run failure.
type ArchiveWarning struct {
	Archive string
	Err     error
}

func (e *ArchiveWarning) Error() string {
	return fmt.Sprintf("archive %q failed: %v", e.Archive, e.Err)
}

func (e *ArchiveWarning) Unwrap() error {
	return e.Err
}
