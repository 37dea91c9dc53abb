package decoder

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("decoder: invalid config")

// Config holds beam search parameters.
type Config struct {
	// BeamWidth is the cost window kept behind the best token of a frame.
	BeamWidth float64 `yaml:"beam_width"`
	// MaxActive caps the number of tokens surviving a frame.
	MaxActive int `yaml:"max_active"`
	// MinActive keeps at least this many tokens even outside the beam.
	MinActive int `yaml:"min_active"`
}

// DefaultConfig returns reasonable default parameters.
func DefaultConfig() Config {
	return Config{
		BeamWidth: 32.0,
		MaxActive: 7000,
		MinActive: 20,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if !(c.BeamWidth > 0) {
		return fmt.Errorf("%w: beam_width must be > 0, got %v", ErrInvalidConfig, c.BeamWidth)
	}
	if c.MaxActive < 1 {
		return fmt.Errorf("%w: max_active must be >= 1, got %d", ErrInvalidConfig, c.MaxActive)
	}
	if c.MinActive < 0 || c.MinActive > c.MaxActive {
		return fmt.Errorf("%w: min_active must be in [0, max_active], got %d", ErrInvalidConfig, c.MinActive)
	}
	return nil
}

// LoadConfig starts from DefaultConfig, overlays the YAML file at path when
// path is not empty, then the WFST_BEAM_WIDTH, WFST_MAX_ACTIVE and
// WFST_MIN_ACTIVE environment variables, and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	loadConfigFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadConfigFromEnv(cfg *Config) {
	if v := os.Getenv("WFST_BEAM_WIDTH"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.BeamWidth = f
		}
	}
	if v := os.Getenv("WFST_MAX_ACTIVE"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.MaxActive = i
		}
	}
	if v := os.Getenv("WFST_MIN_ACTIVE"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.MinActive = i
		}
	}
}
