// Package config holds process-wide defaults for sequence.
//
// The only engine-facing setting is the time quantization precision (ticks
// per unit of time). Schedulers read DefaultPrecision at construction unless
// given an explicit precision.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sequence/internal/ir"
)

// StandardPrecision is the precision used when nothing else is configured.
const StandardPrecision = 1000.0

// EnvPrecision overrides the configured precision when set.
const EnvPrecision = "SEQUENCE_PRECISION"

var defaultPrecision atomic.Uint64

func init() {
	SetDefaultPrecision(StandardPrecision)
}

// DefaultPrecision returns the process-wide quantization precision.
func DefaultPrecision() float64 {
	return math.Float64frombits(defaultPrecision.Load())
}

// SetDefaultPrecision replaces the process-wide quantization precision.
// Values that are not positive and finite are ignored.
func SetDefaultPrecision(p float64) {
	if !ir.ValidPrecision(p) {
		return
	}
	defaultPrecision.Store(math.Float64bits(p))
}

// Config is the on-disk configuration file format.
type Config struct {
	// Precision is ticks per unit of time.
	Precision float64 `yaml:"precision,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`

	// Database is the default path for recorded runs.
	Database string `yaml:"database,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Precision: StandardPrecision,
		LogLevel:  "info",
	}
}

// Load reads a YAML configuration file and applies the environment
// override. Unknown fields are rejected to catch typos.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if v := os.Getenv(EnvPrecision); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvPrecision, v, err)
		}
		cfg.Precision = p
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if !ir.ValidPrecision(c.Precision) {
		return fmt.Errorf("precision must be positive and finite, got %v", c.Precision)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Apply installs the configuration as the process default.
func (c *Config) Apply() {
	SetDefaultPrecision(c.Precision)
}
