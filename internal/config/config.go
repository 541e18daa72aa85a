package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaSnapshotTopic string   `env:"KAFKA_SNAPSHOT_TOPIC" envDefault:"place-event-snapshots"`
	KafkaStateTopic    string   `env:"KAFKA_STATE_TOPIC" envDefault:"transformation-states"`
	KafkaHeatmapTopic  string   `env:"KAFKA_HEATMAP_TOPIC" envDefault:"heatmap-cells"`
	KafkaGroupID       string   `env:"KAFKA_GROUP_ID" envDefault:"transform-engine"`

	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	BatchSize int `env:"BATCH_SIZE" envDefault:"50"`

	// Heatmap aggregation configuration.
	HeatmapEnabled       bool          `env:"HEATMAP_ENABLED" envDefault:"true"`
	HeatmapResolution    int           `env:"HEATMAP_RESOLUTION" envDefault:"8"`
	HeatmapFlushInterval time.Duration `env:"HEATMAP_FLUSH_INTERVAL" envDefault:"30s"`
}

// Load reads configuration from environment variables, applying defaults
// where unset, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSnapshotTopic == "" {
		return nil, errors.New("KAFKA_SNAPSHOT_TOPIC is required")
	}
	if cfg.KafkaStateTopic == "" {
		return nil, errors.New("KAFKA_STATE_TOPIC is required")
	}
	if cfg.HeatmapEnabled && cfg.KafkaHeatmapTopic == "" {
		return nil, errors.New("HEATMAP_ENABLED is true but KAFKA_HEATMAP_TOPIC is not set")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	if cfg.BatchSize < 1 || cfg.BatchSize > 1000 {
		return nil, errors.New("BATCH_SIZE must be between 1 and 1000")
	}
	// H3 supports resolutions 0-15; anything past 12 is sub-building scale
	// and pointless for a neighborhood heatmap, but only hard limits fail.
	if cfg.HeatmapResolution < 0 || cfg.HeatmapResolution > 15 {
		return nil, errors.New("HEATMAP_RESOLUTION must be between 0 and 15")
	}
	if cfg.HeatmapFlushInterval <= 0 {
		return nil, errors.New("invalid HEATMAP_FLUSH_INTERVAL")
	}

	return cfg, nil
}
