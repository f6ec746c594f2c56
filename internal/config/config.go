package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Dataset and model settings.
	DataPath    string
	IDColumn    string
	KMeansSeed  uint64
	KMeansInits int

	// HTTP API settings.
	CORSOrigins     []string
	ExportRateLimit float64
	ExportBurst     int

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
	MapboxRegion    string

	// Kafka publishing of scored locations.
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// minKMeansInits is the lowest accepted KMEANS_INIT.
const minKMeansInits = 10

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeoutStr := sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s")
	mapboxTimeout, err2 := time.ParseDuration(mapboxTimeoutStr)
	if err2 != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("KMEANS_SEED", "42"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid KMEANS_SEED: %w", err)
	}

	inits, err := strconv.Atoi(sharedcfg.EnvOrDefault("KMEANS_INIT", "10"))
	if err != nil || inits < minKMeansInits {
		return nil, fmt.Errorf("invalid KMEANS_INIT: must be an integer >= %d", minKMeansInits)
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("EXPORT_RATE_LIMIT", "5"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid EXPORT_RATE_LIMIT: must be a positive number")
	}

	burst, err := strconv.Atoi(sharedcfg.EnvOrDefault("EXPORT_BURST", "10"))
	if err != nil || burst < 1 {
		return nil, errors.New("invalid EXPORT_BURST: must be a positive integer")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataPath:    sharedcfg.EnvOrDefault("RISK_DATA_PATH", "data/risk.csv"),
		IDColumn:    sharedcfg.EnvOrDefault("RISK_ID_COLUMN", "id"),
		KMeansSeed:  seed,
		KMeansInits: inits,

		CORSOrigins:     parseList(sharedcfg.EnvOrDefault("CORS_ORIGINS", "http://localhost:5173")),
		ExportRateLimit: rateLimit,
		ExportBurst:     burst,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
		MapboxRegion:    sharedcfg.EnvOrDefault("MAPBOX_REGION", "Metro Manila, Philippines"),

		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "scored-locations"),
	}

	if cfg.DataPath == "" {
		return nil, errors.New("RISK_DATA_PATH is required")
	}
	if strings.TrimSpace(cfg.IDColumn) == "" {
		return nil, errors.New("RISK_ID_COLUMN is required")
	}
	if len(cfg.CORSOrigins) == 0 {
		return nil, errors.New("CORS_ORIGINS is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

// parseList splits a comma-separated value, dropping blank entries.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
