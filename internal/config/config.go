package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/homie-data/internal/domain"
)

// Backend names accepted by BACKEND.
const (
	BackendDatabase = "database"
	BackendRemote   = "remote"
	BackendStub     = "stub"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Dataset file paths. An empty path disables that family.
	ThreeZipHPIsPath      string
	FiveZipHPIsPath       string
	CountyHPIsPath        string
	TenYearYieldPath      string
	CitiesPath            string
	ZipCountyPath         string
	MidZipAllHomesPath    string
	MidCityAllHomesPath   string
	MidCountyAllHomesPath string
	RegionState           string

	Backend          string
	DatabaseURL      string
	DatabaseMaxConns int
	RemoteBaseURL    string
	RemoteTimeout    time.Duration
	RemoteCacheSize  int

	IngestWorkers    int
	ServeAfterIngest bool

	PublishEnabled bool
	KafkaBrokers   []string
	KafkaTopic     string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, domain.ConfigErrorf("%w", err)
	}

	remoteTimeout, err := parseDuration("REMOTE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	maxConns, err := parsePositiveInt("DATABASE_MAX_CONNS", 5)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseNonNegativeInt("REMOTE_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	workers, err := parsePositiveInt("INGEST_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	publish, err := parseBool("PUBLISH_ENABLED", false)
	if err != nil {
		return nil, err
	}
	serve, err := parseBool("SERVE_AFTER_INGEST", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ThreeZipHPIsPath:      os.Getenv("THREE_ZIP_HPIS_PATH"),
		FiveZipHPIsPath:       os.Getenv("FIVE_ZIP_HPIS_PATH"),
		CountyHPIsPath:        os.Getenv("COUNTY_HPIS_PATH"),
		TenYearYieldPath:      os.Getenv("TEN_YEAR_YIELD_PATH"),
		CitiesPath:            os.Getenv("CITIES_PATH"),
		ZipCountyPath:         os.Getenv("ZIP_COUNTY_PATH"),
		MidZipAllHomesPath:    os.Getenv("MID_ZIP_ALL_HOMES_PATH"),
		MidCityAllHomesPath:   os.Getenv("MID_CITY_ALL_HOMES_PATH"),
		MidCountyAllHomesPath: os.Getenv("MID_COUNTY_ALL_HOMES_PATH"),
		RegionState:           sharedcfg.EnvOrDefault("REGION_STATE", "CA"),

		Backend:          strings.ToLower(sharedcfg.EnvOrDefault("BACKEND", BackendDatabase)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DatabaseMaxConns: maxConns,
		RemoteBaseURL:    os.Getenv("REMOTE_BASE_URL"),
		RemoteTimeout:    remoteTimeout,
		RemoteCacheSize:  cacheSize,

		IngestWorkers:    workers,
		ServeAfterIngest: serve,

		PublishEnabled: publish,
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:     sharedcfg.EnvOrDefault("KAFKA_TOPIC", "homie-ingested-records"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the cross-field requirements of the selected backend and
// publisher.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendDatabase:
		if c.DatabaseURL == "" {
			return domain.ConfigErrorf("DATABASE_URL is required for the database backend")
		}
	case BackendRemote:
		if c.RemoteBaseURL == "" {
			return domain.ConfigErrorf("REMOTE_BASE_URL is required for the remote backend")
		}
	case BackendStub:
	default:
		return domain.ConfigErrorf("unknown BACKEND %q (want database, remote or stub)", c.Backend)
	}
	if c.PublishEnabled {
		if len(c.KafkaBrokers) == 0 {
			return domain.ConfigErrorf("KAFKA_BROKERS is required when PUBLISH_ENABLED is true")
		}
		if c.KafkaTopic == "" {
			return domain.ConfigErrorf("KAFKA_TOPIC is required when PUBLISH_ENABLED is true")
		}
	}
	return nil
}

func parseDuration(name, def string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(name, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, domain.ConfigErrorf("invalid %s %q", name, s)
	}
	return d, nil
}

func parsePositiveInt(name string, def int) (int, error) {
	n, err := parseInt(name, def)
	if err == nil && n <= 0 {
		return 0, domain.ConfigErrorf("%s must be positive, got %d", name, n)
	}
	return n, err
}

func parseNonNegativeInt(name string, def int) (int, error) {
	n, err := parseInt(name, def)
	if err == nil && n < 0 {
		return 0, domain.ConfigErrorf("%s must not be negative, got %d", name, n)
	}
	return n, err
}

func parseInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, domain.ConfigErrorf("invalid %s %q", name, s)
	}
	return n, nil
}

func parseBool(name string, def bool) (bool, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, domain.ConfigErrorf("invalid %s %q", name, s)
	}
	return b, nil
}
