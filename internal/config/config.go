package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // HOTSPOT_TIMEZONE must resolve in minimal containers

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	ContainerID string
	DataRoot    string
	Store       string // "xlsx" or "sqlite"
	TestMode    bool

	GistdaKey      string
	GistdaEndpoint string
	GistdaTimeout  time.Duration

	PageSize       int
	MaxOffset      int
	ArchiveLagDays int
	Location       *time.Location

	HomeCountry     string
	ExcludedCountry string

	// LINE messaging notifier; disabled when the token is empty.
	LineAccessToken string
	LineTargetID    string
	LineTestID      string

	// Kafka run-summary publisher; disabled when no brokers are set.
	KafkaBrokers      []string
	KafkaSummaryTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

const (
	StoreXLSX   = "xlsx"
	StoreSQLite = "sqlite"
)

// Load reads configuration from environment variables, applying defaults where unset.
// Missing credentials are not an error here; the pipeline checks them before a run.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	gistdaTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("GISTDA_TIMEOUT", "30s"))
	if err != nil || gistdaTimeout <= 0 {
		return nil, errors.New("invalid GISTDA_TIMEOUT")
	}

	pageSize, err := parseIntRange("HOTSPOT_PAGE_SIZE", 1000, 1, 10000)
	if err != nil {
		return nil, err
	}
	maxOffset, err := parseIntRange("HOTSPOT_MAX_OFFSET", 100000, 1, 10_000_000)
	if err != nil {
		return nil, err
	}
	lagDays, err := parseIntRange("HOTSPOT_ARCHIVE_LAG_DAYS", 2, 0, 365)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(sharedcfg.EnvOrDefault("HOTSPOT_TIMEZONE", "Asia/Bangkok"))
	if err != nil {
		return nil, fmt.Errorf("invalid HOTSPOT_TIMEZONE: %w", err)
	}

	testMode := false
	if v := os.Getenv("HOTSPOT_TEST_MODE"); v != "" {
		testMode, err = strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("invalid HOTSPOT_TEST_MODE")
		}
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		ContainerID: os.Getenv("HOTSPOT_CONTAINER_ID"),
		DataRoot:    sharedcfg.EnvOrDefault("HOTSPOT_DATA_ROOT", "./data"),
		Store:       sharedcfg.EnvOrDefault("HOTSPOT_STORE", StoreXLSX),
		TestMode:    testMode,

		GistdaKey:      os.Getenv("GISTDA_KEY"),
		GistdaEndpoint: sharedcfg.EnvOrDefault("GISTDA_ENDPOINT", "https://api-gateway.gistda.or.th/api/2.0/resources/features/viirs/1day"),
		GistdaTimeout:  gistdaTimeout,

		PageSize:       pageSize,
		MaxOffset:      maxOffset,
		ArchiveLagDays: lagDays,
		Location:       loc,

		HomeCountry:     sharedcfg.EnvOrDefault("HOTSPOT_HOME_COUNTRY", "Thailand"),
		ExcludedCountry: sharedcfg.EnvOrDefault("HOTSPOT_EXCLUDED_COUNTRY", "China"),

		LineAccessToken: os.Getenv("LINE_ACCESS_TOKEN"),
		LineTargetID:    os.Getenv("LINE_TARGET_ID"),
		LineTestID:      os.Getenv("LINE_TEST_ID"),

		KafkaBrokers:      brokers,
		KafkaSummaryTopic: sharedcfg.EnvOrDefault("KAFKA_SUMMARY_TOPIC", "hotspot-run-summaries"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.Store != StoreXLSX && cfg.Store != StoreSQLite {
		return nil, fmt.Errorf("HOTSPOT_STORE must be %q or %q", StoreXLSX, StoreSQLite)
	}
	if cfg.DataRoot == "" {
		return nil, errors.New("HOTSPOT_DATA_ROOT is required")
	}
	if cfg.HomeCountry == "" {
		return nil, errors.New("HOTSPOT_HOME_COUNTRY is required")
	}

	return cfg, nil
}

func parseIntRange(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer in [%d, %d]", key, lo, hi)
	}
	return n, nil
}
