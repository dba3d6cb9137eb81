package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGistdaKey = "gistda-test-key"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.ContainerID)
	assert.Equal(t, "./data", cfg.DataRoot)
	assert.Equal(t, StoreXLSX, cfg.Store)
	assert.False(t, cfg.TestMode)
	assert.Empty(t, cfg.GistdaKey)
	assert.Equal(t, "https://api-gateway.gistda.or.th/api/2.0/resources/features/viirs/1day", cfg.GistdaEndpoint)
	assert.Equal(t, 30*time.Second, cfg.GistdaTimeout)
	assert.Equal(t, 1000, cfg.PageSize)
	assert.Equal(t, 100000, cfg.MaxOffset)
	assert.Equal(t, 2, cfg.ArchiveLagDays)
	assert.Equal(t, "Asia/Bangkok", cfg.Location.String())
	assert.Equal(t, "Thailand", cfg.HomeCountry)
	assert.Equal(t, "China", cfg.ExcludedCountry)
	assert.Empty(t, cfg.LineAccessToken)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "hotspot-run-summaries", cfg.KafkaSummaryTopic)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HOTSPOT_CONTAINER_ID", "folder-123")
	t.Setenv("HOTSPOT_DATA_ROOT", "/var/lib/hotspot")
	t.Setenv("HOTSPOT_STORE", "sqlite")
	t.Setenv("HOTSPOT_TEST_MODE", "true")
	t.Setenv("GISTDA_KEY", testGistdaKey)
	t.Setenv("GISTDA_ENDPOINT", "http://localhost:9000/viirs")
	t.Setenv("GISTDA_TIMEOUT", "5s")
	t.Setenv("HOTSPOT_PAGE_SIZE", "500")
	t.Setenv("HOTSPOT_MAX_OFFSET", "20000")
	t.Setenv("HOTSPOT_ARCHIVE_LAG_DAYS", "1")
	t.Setenv("HOTSPOT_TIMEZONE", "UTC")
	t.Setenv("HOTSPOT_HOME_COUNTRY", "Laos")
	t.Setenv("HOTSPOT_EXCLUDED_COUNTRY", "Vietnam")
	t.Setenv("LINE_ACCESS_TOKEN", "line-token")
	t.Setenv("LINE_TARGET_ID", "group-1")
	t.Setenv("LINE_TEST_ID", "user-1")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SUMMARY_TOPIC", "summaries")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "folder-123", cfg.ContainerID)
	assert.Equal(t, "/var/lib/hotspot", cfg.DataRoot)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.True(t, cfg.TestMode)
	assert.Equal(t, testGistdaKey, cfg.GistdaKey)
	assert.Equal(t, "http://localhost:9000/viirs", cfg.GistdaEndpoint)
	assert.Equal(t, 5*time.Second, cfg.GistdaTimeout)
	assert.Equal(t, 500, cfg.PageSize)
	assert.Equal(t, 20000, cfg.MaxOffset)
	assert.Equal(t, 1, cfg.ArchiveLagDays)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, "Laos", cfg.HomeCountry)
	assert.Equal(t, "Vietnam", cfg.ExcludedCountry)
	assert.Equal(t, "line-token", cfg.LineAccessToken)
	assert.Equal(t, "group-1", cfg.LineTargetID)
	assert.Equal(t, "user-1", cfg.LineTestID)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "summaries", cfg.KafkaSummaryTopic)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidGistdaTimeout(t *testing.T) {
	t.Setenv("GISTDA_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GISTDA_TIMEOUT")
}

func TestLoad_InvalidPageSize(t *testing.T) {
	for _, v := range []string{"0", "-5", "abc", "20000"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("HOTSPOT_PAGE_SIZE", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "HOTSPOT_PAGE_SIZE")
		})
	}
}

func TestLoad_InvalidMaxOffset(t *testing.T) {
	t.Setenv("HOTSPOT_MAX_OFFSET", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOTSPOT_MAX_OFFSET")
}

func TestLoad_InvalidTimezone(t *testing.T) {
	t.Setenv("HOTSPOT_TIMEZONE", "Mars/Olympus_Mons")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOTSPOT_TIMEZONE")
}

func TestLoad_InvalidStore(t *testing.T) {
	t.Setenv("HOTSPOT_STORE", "postgres")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOTSPOT_STORE")
}

func TestLoad_InvalidTestMode(t *testing.T) {
	t.Setenv("HOTSPOT_TEST_MODE", "sometimes")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOTSPOT_TEST_MODE")
}
