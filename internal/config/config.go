// Package config loads service configuration from the environment and an
// optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var databaseSchemes = []string{"postgres://", "postgresql://", "sqlite://"}

// Config holds all configuration for the application.
type Config struct {
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisURL enables the cross-process run lock and last-run record. Empty disables both.
	RedisURL string `mapstructure:"REDIS_URL"`

	// DataDir is the directory scanned for source files, made absolute by Load.
	DataDir         string        `mapstructure:"DATA_DIR"`
	BatchSize       int           `mapstructure:"IMPORT_BATCH_SIZE"`
	FilePrefix      string        `mapstructure:"IMPORT_FILE_PREFIX"`
	ImportOnStartup bool          `mapstructure:"IMPORT_ON_STARTUP"`
	LockTTL         time.Duration `mapstructure:"IMPORT_LOCK_TTL"`

	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("IMPORT_BATCH_SIZE", 5000)
	v.SetDefault("IMPORT_FILE_PREFIX", "activities_")
	v.SetDefault("IMPORT_ON_STARTUP", true)
	v.SetDefault("IMPORT_LOCK_TTL", "1h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", "30s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("config: DATABASE_URL is required")
	}
	if !hasScheme(cfg.DatabaseURL, databaseSchemes) {
		return nil, errors.New("config: DATABASE_URL must start with postgres://, postgresql:// or sqlite://")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("config: IMPORT_BATCH_SIZE must be positive, got %d", cfg.BatchSize)
	}
	if cfg.FilePrefix == "" {
		return nil, errors.New("config: IMPORT_FILE_PREFIX must not be empty")
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	dataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolving DATA_DIR: %w", err)
	}
	cfg.DataDir = dataDir

	return &cfg, nil
}

// SlogLevel returns the configured log level, info if unset.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("config: unknown LOG_LEVEL %q", s)
}

func hasScheme(url string, schemes []string) bool {
	for _, s := range schemes {
		if strings.HasPrefix(url, s) {
			return true
		}
	}
	return false
}
