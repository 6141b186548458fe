package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

var configKeys = []string{
	"PORT", "DATABASE_URL", "REDIS_URL", "DATA_DIR", "IMPORT_BATCH_SIZE",
	"IMPORT_FILE_PREFIX", "IMPORT_ON_STARTUP", "IMPORT_LOCK_TTL", "LOG_LEVEL", "SHUTDOWN_TIMEOUT",
}

// clearEnv blanks every key Load reads; viper treats empty values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/activities")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.RedisURL != "" {
		t.Errorf("RedisURL = %q, want empty", cfg.RedisURL)
	}
	if cfg.BatchSize != 5000 {
		t.Errorf("BatchSize = %d, want 5000", cfg.BatchSize)
	}
	if cfg.FilePrefix != "activities_" {
		t.Errorf("FilePrefix = %q, want activities_", cfg.FilePrefix)
	}
	if !cfg.ImportOnStartup {
		t.Error("ImportOnStartup should default to true")
	}
	if cfg.LockTTL != time.Hour {
		t.Errorf("LockTTL = %v, want 1h", cfg.LockTTL)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s", cfg.ShutdownTimeout)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("SlogLevel = %v, want info", cfg.SlogLevel())
	}
	if !filepath.IsAbs(cfg.DataDir) || filepath.Base(cfg.DataDir) != "data" {
		t.Errorf("DataDir = %q, want absolute path ending in data", cfg.DataDir)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "sqlite:///tmp/activities.db")
	t.Setenv("PORT", "9090")
	t.Setenv("IMPORT_BATCH_SIZE", "250")
	t.Setenv("IMPORT_ON_STARTUP", "false")
	t.Setenv("IMPORT_LOCK_TTL", "5m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATA_DIR", "/srv/activity-data")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.BatchSize != 250 {
		t.Errorf("BatchSize = %d, want 250", cfg.BatchSize)
	}
	if cfg.ImportOnStartup {
		t.Error("ImportOnStartup should be false")
	}
	if cfg.LockTTL != 5*time.Minute {
		t.Errorf("LockTTL = %v, want 5m", cfg.LockTTL)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, want debug", cfg.SlogLevel())
	}
	if cfg.DataDir != "/srv/activity-data" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.DatabaseURL != "sqlite:///tmp/activities.db" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database url", map[string]string{}},
		{"unsupported database scheme", map[string]string{"DATABASE_URL": "mysql://localhost/db"}},
		{"zero batch size", map[string]string{"DATABASE_URL": "postgres://x", "IMPORT_BATCH_SIZE": "0"}},
		{"negative batch size", map[string]string{"DATABASE_URL": "postgres://x", "IMPORT_BATCH_SIZE": "-5"}},
		{"unknown log level", map[string]string{"DATABASE_URL": "postgres://x", "LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
