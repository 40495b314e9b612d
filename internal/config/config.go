// Package config loads boq2xlsx settings from defaults, an optional YAML file,
// a .env file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel     = "gemini-2.5-flash"
	DefaultZoom      = 2.0
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	maxZoom = 8.0
)

// Config holds all settings for an extraction run.
type Config struct {
	APIKey    string    `yaml:"api_key"`
	Model     string    `yaml:"model"`
	Zoom      float64   `yaml:"zoom"`
	Retries   int       `yaml:"retries"`
	Cache     string    `yaml:"cache"` // sqlite path; empty disables the page cache
	Reference string    `yaml:"reference"`
	Log       LogConfig `yaml:"log"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

func Default() Config {
	return Config{
		Model: DefaultModel,
		Zoom:  DefaultZoom,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads the YAML file at path (skipped when empty), then .env from the
// working directory, then environment overrides. It does not validate, so
// flags can still fill in missing values.
func Load(path string) (Config, error) {
	return load(path, ".env")
}

func load(path, dotenv string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("BOQ_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("BOQ_ZOOM"); v != "" {
		z, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BOQ_ZOOM: %w", err)
		}
		cfg.Zoom = z
	}
	if v := os.Getenv("BOQ_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BOQ_RETRIES: %w", err)
		}
		cfg.Retries = n
	}
	if v := os.Getenv("BOQ_CACHE"); v != "" {
		cfg.Cache = v
	}
	if v := os.Getenv("BOQ_REFERENCE"); v != "" {
		cfg.Reference = v
	}
	if v := os.Getenv("BOQ_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("BOQ_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("missing API key: set GEMINI_API_KEY or api_key in the config file")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model must not be empty")
	}
	if c.Zoom <= 0 || c.Zoom > maxZoom {
		return fmt.Errorf("zoom must be in (0, %g], got %g", maxZoom, c.Zoom)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must be >= 0, got %d", c.Retries)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}
