package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	pokeerrors "github.com/xraph/poke/errors"
	"github.com/xraph/poke/internal/di"
	"github.com/xraph/poke/internal/tracing"
)

// Search policies for a key defined by more than one attached component.
const (
	SearchFirstMatch = string(di.SearchFirstMatch)
	SearchStrict     = string(di.SearchStrict)
)

// File names looked up by Discover.
const (
	FileName      = "poke.yaml"
	LocalFileName = "poke.local.yaml"
)

// Config is the graph configuration.
type Config struct {
	// Marker is the struct tag key identifying injection points.
	Marker string `yaml:"marker"`

	// SearchPolicy is SearchFirstMatch or SearchStrict.
	SearchPolicy string `yaml:"search_policy"`

	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures the graph logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Environment string `yaml:"environment"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// TracingConfig configures OpenTelemetry spans. Without an exporter spans go
// to the global tracer provider.
type TracingConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Exporter    string            `yaml:"exporter"`
	Endpoint    string            `yaml:"endpoint"`
	Insecure    bool              `yaml:"insecure"`
	Compression string            `yaml:"compression"`
	Headers     map[string]string `yaml:"headers"`
	ServiceName string            `yaml:"service_name"`
	SampleRatio float64           `yaml:"sample_ratio"`
}

// ExporterConfig converts the tracing section for tracing.NewProvider.
func (t TracingConfig) ExporterConfig() tracing.ExporterConfig {
	return tracing.ExporterConfig{
		Exporter:    t.Exporter,
		Endpoint:    t.Endpoint,
		Insecure:    t.Insecure,
		Compression: t.Compression,
		Headers:     t.Headers,
		ServiceName: t.ServiceName,
		SampleRatio: t.SampleRatio,
	}
}

// Exports reports whether spans leave the process through a configured
// exporter.
func (t TracingConfig) Exports() bool {
	return t.Enabled && t.Exporter == tracing.ExporterOTLP
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Marker:       string(di.DefaultMarker),
		SearchPolicy: SearchFirstMatch,
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "console",
			Environment: "development",
		},
		Metrics: MetricsConfig{
			Namespace: "poke",
		},
		Tracing: TracingConfig{
			Enabled:     true,
			Exporter:    tracing.ExporterNone,
			ServiceName: "poke",
			SampleRatio: 1,
		},
	}
}

// Parse decodes YAML over the defaults and validates the result. Unknown keys
// are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := decodeInto(&cfg, data); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads the given files in order over the defaults. Keys set in later
// files override earlier ones. Every path must exist.
func Load(paths ...string) (Config, error) {
	cfg := Default()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, pokeerrors.ErrInvalidConfig(path, err)
		}

		if err := decodeInto(&cfg, data); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Discover loads FileName and then LocalFileName from dir, skipping either
// when absent. With neither present it returns the defaults.
func Discover(dir string) (Config, error) {
	var paths []string

	for _, name := range []string{FileName, LocalFileName} {
		path := filepath.Join(dir, name)

		_, err := os.Stat(path)
		switch {
		case err == nil:
			paths = append(paths, path)
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, pokeerrors.ErrInvalidConfig(path, err)
		}
	}

	return Load(paths...)
}

// Validate checks the configuration for unusable values.
func (c Config) Validate() error {
	if c.Marker == "" {
		return pokeerrors.ErrInvalidConfig("marker", errors.New("marker cannot be empty"))
	}

	switch c.SearchPolicy {
	case SearchFirstMatch, SearchStrict:
	default:
		return pokeerrors.ErrInvalidConfig("search_policy",
			fmt.Errorf("unknown policy %q, want %q or %q", c.SearchPolicy, SearchFirstMatch, SearchStrict))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return pokeerrors.ErrInvalidConfig("logging.level", fmt.Errorf("unknown level %q", c.Logging.Level))
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return pokeerrors.ErrInvalidConfig("logging.format", fmt.Errorf("unknown format %q", c.Logging.Format))
	}

	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return pokeerrors.ErrInvalidConfig("metrics.namespace", errors.New("namespace required when metrics are enabled"))
	}

	switch c.Tracing.Exporter {
	case "", tracing.ExporterNone:
	case tracing.ExporterOTLP:
		if c.Tracing.Endpoint == "" {
			return pokeerrors.ErrInvalidConfig("tracing.endpoint", errors.New("endpoint required for the otlp exporter"))
		}
	default:
		return pokeerrors.ErrInvalidConfig("tracing.exporter", fmt.Errorf("unknown exporter %q", c.Tracing.Exporter))
	}

	switch c.Tracing.Compression {
	case "", "gzip":
	default:
		return pokeerrors.ErrInvalidConfig("tracing.compression", fmt.Errorf("unknown compression %q", c.Tracing.Compression))
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return pokeerrors.ErrInvalidConfig("tracing.sample_ratio", fmt.Errorf("ratio %v outside [0, 1]", c.Tracing.SampleRatio))
	}

	return nil
}

func decodeInto(cfg *Config, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return pokeerrors.ErrInvalidConfig("yaml", err)
	}

	return nil
}
