package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/pulse/pkg/application"
	"github.com/felixgeelhaar/pulse/pkg/domain/insight"
	"github.com/felixgeelhaar/pulse/pkg/domain/wbs"
	"github.com/felixgeelhaar/pulse/pkg/storage"
)

// Environment variables that override pulse.yaml.
const (
	EnvRoot        = "PULSE_ROOT"
	EnvAddr        = "PULSE_ADDR"
	EnvLogLevel    = "PULSE_LOG_LEVEL"
	EnvDatabaseURL = "PULSE_DATABASE_URL"
	EnvPushSecret  = "PULSE_PUSH_SECRET"
)

const DefaultAddr = "127.0.0.1:8787"

const DefaultDebounce = 500 * time.Millisecond

// Config is the content of .pulse/pulse.yaml plus environment overrides.
type Config struct {
	Days             int           `yaml:"days"`
	HorizonDays      int           `yaml:"horizon_days"`
	CollectorTimeout time.Duration `yaml:"collector_timeout"`
	RetryAttempts    int           `yaml:"retry_attempts"`
	Sections         []string      `yaml:"sections,omitempty"`
	Watch            WatchConfig   `yaml:"watch"`
	Serve            ServeConfig   `yaml:"serve"`

	LogLevel    string `yaml:"-"`
	DatabaseURL string `yaml:"-"`
	// PushSecret enables POST /ingest on the server.
	PushSecret string `yaml:"-"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Include  []string      `yaml:"include,omitempty"`
	Exclude  []string      `yaml:"exclude,omitempty"`
}

type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when pulse.yaml is absent.
func Default() *Config {
	return &Config{
		Days:             application.DefaultDays,
		CollectorTimeout: 10 * time.Second,
		RetryAttempts:    2,
		Watch:            WatchConfig{Debounce: DefaultDebounce},
		Serve:            ServeConfig{Addr: DefaultAddr},
		LogLevel:         "info",
	}
}

// LoadEnv reads a .env file from the working directory if one exists.
func LoadEnv() {
	_ = godotenv.Load()
}

// ResolveRoot picks the workspace root: PULSE_ROOT wins over the flag value.
func ResolveRoot(flagValue string) string {
	if env := strings.TrimSpace(os.Getenv(EnvRoot)); env != "" {
		return env
	}
	if strings.TrimSpace(flagValue) == "" {
		return "."
	}
	return flagValue
}

// Load reads pulse.yaml under root and applies environment overrides.
// A missing file yields the defaults.
func Load(root string) (*Config, error) {
	cfg := Default()

	repo := storage.NewFilesystemRepository(root)
	path, err := repo.ResolvePath(storage.ConfigFile)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- Path is resolved and validated via ResolvePath
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Join(storage.PulseDir, storage.ConfigFile), err)
	}
	return cfg, nil
}

// Save writes cfg to pulse.yaml under root.
func Save(root string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return storage.NewFilesystemRepository(root).WriteFile(storage.ConfigFile, data)
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		c.Serve.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDatabaseURL)); v != "" {
		c.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPushSecret)); v != "" {
		c.PushSecret = v
	}
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.Days <= 0 {
		c.Days = d.Days
	}
	if c.CollectorTimeout <= 0 {
		c.CollectorTimeout = d.CollectorTimeout
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = d.RetryAttempts
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = d.Watch.Debounce
	}
	if strings.TrimSpace(c.Serve.Addr) == "" {
		c.Serve.Addr = d.Serve.Addr
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Validate rejects unknown sections and a negative horizon.
func (c *Config) Validate() error {
	if c.HorizonDays < 0 {
		return fmt.Errorf("horizon_days must not be negative, got %d", c.HorizonDays)
	}
	for _, s := range c.Sections {
		if !insight.Section(s).IsValid() {
			return fmt.Errorf("unknown section %q", s)
		}
	}
	return nil
}

// Horizon converts horizon_days to a WBS horizon. Zero means unbounded.
func (c *Config) Horizon() wbs.Horizon {
	if c.HorizonDays > 0 {
		return wbs.WithinDays(c.HorizonDays)
	}
	return wbs.Unbounded
}

// InsightConfig maps the file settings onto the insight service.
func (c *Config) InsightConfig() application.InsightConfig {
	sections := make([]insight.Section, 0, len(c.Sections))
	for _, s := range c.Sections {
		sections = append(sections, insight.Section(s))
	}
	return application.InsightConfig{
		Days:             c.Days,
		CollectorTimeout: c.CollectorTimeout,
		RetryAttempts:    c.RetryAttempts,
		Sections:         sections,
	}
}
