package wdt

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the file-based configuration for a batch analysis run.
type Config struct {
	// Format forces a variant: "alpha", "retail", or "" for detection.
	Format string `yaml:"format"`

	// Listfile is an optional asset-corpus path, plain or gzipped.
	Listfile string `yaml:"listfile"`

	// Workers bounds parse concurrency; 0 selects the CPU count.
	Workers int `yaml:"workers"`

	GapThreshold     int64 `yaml:"gap_threshold"`
	ClusterThreshold int   `yaml:"cluster_threshold"`
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks field ranges and the format name.
func (c *Config) Validate() error {
	if _, err := c.Variant(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.GapThreshold < 0 {
		return fmt.Errorf("gap_threshold must be >= 0, got %d", c.GapThreshold)
	}
	if c.ClusterThreshold < 0 {
		return fmt.Errorf("cluster_threshold must be >= 0, got %d", c.ClusterThreshold)
	}
	return nil
}

// Variant maps the config's format name onto a FormatVariant.
func (c *Config) Variant() (FormatVariant, error) {
	switch c.Format {
	case "":
		return FormatUnknown, nil
	case "alpha":
		return FormatAlpha, nil
	case "retail":
		return FormatRetail, nil
	default:
		return FormatUnknown, fmt.Errorf("unknown format %q (want alpha or retail)", c.Format)
	}
}

// AggregateConfig converts the config's thresholds, leaving zero values
// to pick up the aggregation defaults.
func (c *Config) AggregateConfig() AggregateConfig {
	return AggregateConfig{
		GapThreshold:     c.GapThreshold,
		ClusterThreshold: c.ClusterThreshold,
	}
}
