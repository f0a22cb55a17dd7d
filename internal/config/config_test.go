package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/homie-data/internal/domain"
)

const (
	defaultBroker = "localhost:9092"
	testDBURL     = "sqlite:///tmp/homie.db"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", testDBURL)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendDatabase, cfg.Backend)
	assert.Equal(t, testDBURL, cfg.DatabaseURL)
	assert.Equal(t, 5, cfg.DatabaseMaxConns)
	assert.Equal(t, 10*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, 1000, cfg.RemoteCacheSize)
	assert.Equal(t, 4, cfg.IngestWorkers)
	assert.False(t, cfg.ServeAfterIngest)
	assert.False(t, cfg.PublishEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "homie-ingested-records", cfg.KafkaTopic)
	assert.Equal(t, "CA", cfg.RegionState)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.ThreeZipHPIsPath)
	assert.Empty(t, cfg.MidCityAllHomesPath)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("THREE_ZIP_HPIS_PATH", "data/3zip.csv")
	t.Setenv("FIVE_ZIP_HPIS_PATH", "data/5zip.csv")
	t.Setenv("COUNTY_HPIS_PATH", "data/county.csv")
	t.Setenv("TEN_YEAR_YIELD_PATH", "data/10y.csv")
	t.Setenv("CITIES_PATH", "data/cities.csv")
	t.Setenv("ZIP_COUNTY_PATH", "data/crosswalk.csv")
	t.Setenv("MID_ZIP_ALL_HOMES_PATH", "data/zip.csv")
	t.Setenv("MID_CITY_ALL_HOMES_PATH", "data/city.csv")
	t.Setenv("MID_COUNTY_ALL_HOMES_PATH", "data/countyzhvi.csv")
	t.Setenv("REGION_STATE", "NV")
	t.Setenv("BACKEND", "Remote")
	t.Setenv("REMOTE_BASE_URL", "http://homie-api:8080")
	t.Setenv("REMOTE_TIMEOUT", "3s")
	t.Setenv("REMOTE_CACHE_SIZE", "0")
	t.Setenv("INGEST_WORKERS", "8")
	t.Setenv("SERVE_AFTER_INGEST", "true")
	t.Setenv("PUBLISH_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-topic")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/3zip.csv", cfg.ThreeZipHPIsPath)
	assert.Equal(t, "data/5zip.csv", cfg.FiveZipHPIsPath)
	assert.Equal(t, "data/county.csv", cfg.CountyHPIsPath)
	assert.Equal(t, "data/10y.csv", cfg.TenYearYieldPath)
	assert.Equal(t, "data/cities.csv", cfg.CitiesPath)
	assert.Equal(t, "data/crosswalk.csv", cfg.ZipCountyPath)
	assert.Equal(t, "data/zip.csv", cfg.MidZipAllHomesPath)
	assert.Equal(t, "data/city.csv", cfg.MidCityAllHomesPath)
	assert.Equal(t, "data/countyzhvi.csv", cfg.MidCountyAllHomesPath)
	assert.Equal(t, "NV", cfg.RegionState)
	assert.Equal(t, BackendRemote, cfg.Backend)
	assert.Equal(t, "http://homie-api:8080", cfg.RemoteBaseURL)
	assert.Equal(t, 3*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, 0, cfg.RemoteCacheSize)
	assert.Equal(t, 8, cfg.IngestWorkers)
	assert.True(t, cfg.ServeAfterIngest)
	assert.True(t, cfg.PublishEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-topic", cfg.KafkaTopic)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_StubNeedsNothing(t *testing.T) {
	t.Setenv("BACKEND", "stub")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendStub, cfg.Backend)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "database without url", env: map[string]string{}, want: "DATABASE_URL"},
		{name: "remote without url", env: map[string]string{"BACKEND": "remote"}, want: "REMOTE_BASE_URL"},
		{name: "unknown backend", env: map[string]string{"BACKEND": "mongo"}, want: "BACKEND"},
		{name: "bad remote timeout", env: map[string]string{"BACKEND": "stub", "REMOTE_TIMEOUT": "soon"}, want: "REMOTE_TIMEOUT"},
		{name: "zero remote timeout", env: map[string]string{"BACKEND": "stub", "REMOTE_TIMEOUT": "0s"}, want: "REMOTE_TIMEOUT"},
		{name: "zero workers", env: map[string]string{"BACKEND": "stub", "INGEST_WORKERS": "0"}, want: "INGEST_WORKERS"},
		{name: "bad max conns", env: map[string]string{"BACKEND": "stub", "DATABASE_MAX_CONNS": "many"}, want: "DATABASE_MAX_CONNS"},
		{name: "negative cache", env: map[string]string{"BACKEND": "stub", "REMOTE_CACHE_SIZE": "-1"}, want: "REMOTE_CACHE_SIZE"},
		{name: "bad publish flag", env: map[string]string{"BACKEND": "stub", "PUBLISH_ENABLED": "maybe"}, want: "PUBLISH_ENABLED"},
		{name: "bad shutdown timeout", env: map[string]string{"BACKEND": "stub", "SHUTDOWN_TIMEOUT": "not-a-duration"}, want: "SHUTDOWN_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
