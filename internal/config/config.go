package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/lakowske/backdrop/internal/logger"
)

// Defaults applied when the config file is absent or leaves fields unset.
const (
	DefaultStartVerifyDelay = 500 * time.Millisecond
	DefaultRestartDelay     = 1 * time.Second
	DefaultStopTimeout      = 10 * time.Second
	DefaultStopPollInterval = 200 * time.Millisecond
	DefaultLogPollInterval  = 100 * time.Millisecond
)

// Config is the supervisor's runtime configuration, loaded from an optional
// TOML file under the base directory.
type Config struct {
	BaseDir          string        `mapstructure:"base_dir"`
	LogDir           string        `mapstructure:"log_dir"`
	StartVerifyDelay time.Duration `mapstructure:"start_verify_delay"`
	RestartDelay     time.Duration `mapstructure:"restart_delay"`
	StopTimeout      time.Duration `mapstructure:"stop_timeout"`
	StopPollInterval time.Duration `mapstructure:"stop_poll_interval"`
	LogPollInterval  time.Duration `mapstructure:"log_poll_interval"`
	HistoryDSN       string        `mapstructure:"history_dsn"`
	MetricsTextfile  string        `mapstructure:"metrics_textfile"`
	Log              logger.Config `mapstructure:"log"`
}

// Default returns the configuration used when no file is present.
// All state lives under ~/.backdrop.
func Default() Config {
	base := defaultBaseDir()
	return Config{
		BaseDir:          base,
		LogDir:           filepath.Join(base, "logs"),
		StartVerifyDelay: DefaultStartVerifyDelay,
		RestartDelay:     DefaultRestartDelay,
		StopTimeout:      DefaultStopTimeout,
		StopPollInterval: DefaultStopPollInterval,
		LogPollInterval:  DefaultLogPollInterval,
	}
}

// Load reads TOML config from path. A missing file yields defaults; a
// malformed file is an error. Relative LogDir is resolved under BaseDir.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		var nf viper.ConfigFileNotFoundError
		if errors.As(err, &nf) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.BaseDir == "" {
		c.BaseDir = defaultBaseDir()
	}
	if c.LogDir == "" {
		c.LogDir = filepath.Join(c.BaseDir, "logs")
	} else if !filepath.IsAbs(c.LogDir) {
		c.LogDir = filepath.Join(c.BaseDir, c.LogDir)
	}
	if c.StartVerifyDelay <= 0 {
		c.StartVerifyDelay = DefaultStartVerifyDelay
	}
	if c.RestartDelay <= 0 {
		c.RestartDelay = DefaultRestartDelay
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = DefaultStopTimeout
	}
	if c.StopPollInterval <= 0 {
		c.StopPollInterval = DefaultStopPollInterval
	}
	if c.LogPollInterval <= 0 {
		c.LogPollInterval = DefaultLogPollInterval
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	return filepath.Join(defaultBaseDir(), "config.toml")
}

func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fall back to the working directory when HOME is unset.
		return ".backdrop"
	}
	return filepath.Join(home, ".backdrop")
}
