package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete rewind configuration.
type Config struct {
	DataDir   string          `mapstructure:"data_dir"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Timeline  TimelineConfig  `mapstructure:"timeline"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DirectoryConfig controls where desktop entries are scanned.
type DirectoryConfig struct {
	// Paths overrides the XDG application directories when non-empty.
	Paths []string `mapstructure:"paths"`
}

// TimelineConfig controls timeline rendering.
type TimelineConfig struct {
	MinBarSeconds  int `mapstructure:"min_bar_seconds"`
	SecondsPerCell int `mapstructure:"seconds_per_cell"`
	Width          int `mapstructure:"width"`
}

// WatchConfig controls the usage log watcher.
type WatchConfig struct {
	Interval    string `mapstructure:"interval"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultDataDir returns ~/.rewind.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".rewind"), nil
}

// DefaultPath returns the config file location inside Dir.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads configuration from configPath and REWIND_* environment
// variables. An empty configPath selects DefaultPath. A missing file is not
// an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if err := setDefaults(v); err != nil {
		return nil, err
	}

	if configPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("REWIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) error {
	dataDir, err := DefaultDataDir()
	if err != nil {
		return err
	}
	v.SetDefault("data_dir", dataDir)

	v.SetDefault("directory.paths", []string{})

	// A bar is never narrower than 100 seconds of screen time.
	v.SetDefault("timeline.min_bar_seconds", 100)
	v.SetDefault("timeline.seconds_per_cell", 60)
	v.SetDefault("timeline.width", 80)

	v.SetDefault("watch.interval", "30s")
	v.SetDefault("watch.metrics_addr", "")

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")
	return nil
}

func validate(cfg *Config) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if cfg.Timeline.MinBarSeconds < 0 {
		return fmt.Errorf("invalid timeline.min_bar_seconds: %d", cfg.Timeline.MinBarSeconds)
	}
	if cfg.Timeline.SecondsPerCell <= 0 {
		return fmt.Errorf("invalid timeline.seconds_per_cell: %d", cfg.Timeline.SecondsPerCell)
	}
	if cfg.Timeline.Width < 10 {
		return fmt.Errorf("invalid timeline.width: %d (minimum 10)", cfg.Timeline.Width)
	}
	if _, err := cfg.WatchInterval(); err != nil {
		return err
	}
	if _, err := ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %w", err)
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging.format: %q", cfg.Logging.Format)
	}
	return nil
}

// WatchInterval parses Watch.Interval.
func (c *Config) WatchInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Watch.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid watch.interval %q: %w", c.Watch.Interval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid watch.interval %q: must be positive", c.Watch.Interval)
	}
	return d, nil
}

// DBPath returns the SQLite database location.
func (c *Config) DBPath() string { return filepath.Join(c.DataDir, "rewind.db") }

// UsageLogPath returns the hook's append-only log.
func (c *Config) UsageLogPath() string { return filepath.Join(c.DataDir, "usage.log") }

// OffsetPath returns the file holding the processed byte offset of the usage log.
func (c *Config) OffsetPath() string { return filepath.Join(c.DataDir, "usage.offset") }

// PIDPath returns the watcher daemon PID file.
func (c *Config) PIDPath() string { return filepath.Join(c.DataDir, "watch.pid") }

// WatchLogPath returns the watcher daemon's log file.
func (c *Config) WatchLogPath() string { return filepath.Join(c.DataDir, "watch.log") }
