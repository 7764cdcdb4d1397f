package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config drives the server process. Values come from an optional YAML file
// and are overridden by RULECORE_* environment variables.
type Config struct {
	Addr    string        `yaml:"addr"`
	Storage StorageConfig `yaml:"storage"`
	Blob    BlobConfig    `yaml:"blob"`
	Logging LoggingConfig `yaml:"logging"`
	Strict  bool          `yaml:"strict_scope_policy"`
}

// StorageConfig selects and parameterizes the persistence backend.
type StorageConfig struct {
	Driver      string `yaml:"driver"` // memory|sqlite|postgres
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// BlobConfig selects the archive blob backend. S3 credentials come from the
// RULECORE_BLOB_S3_* environment variables, never from the file.
type BlobConfig struct {
	Driver string `yaml:"driver"` // fs|s3|memory|none
	FSRoot string `yaml:"fs_root"`
}

// LoggingConfig tunes the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
}

func defaultConfig() Config {
	return Config{
		Addr: ":8080",
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "rulecore.db",
		},
		Blob: BlobConfig{
			Driver: "fs",
			FSRoot: "./archivedata",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads the YAML file at path (optional, empty path skips the
// file) and applies environment overrides on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		payload, err := os.ReadFile(path) // #nosec G304 -- operator-provided path
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(payload, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setIfEnv(&cfg.Addr, "RULECORE_ADDR")
	setIfEnv(&cfg.Storage.Driver, "RULECORE_STORAGE_DRIVER")
	setIfEnv(&cfg.Storage.SQLitePath, "RULECORE_SQLITE_PATH")
	setIfEnv(&cfg.Storage.PostgresDSN, "RULECORE_POSTGRES_DSN")
	setIfEnv(&cfg.Blob.Driver, "RULECORE_BLOB_DRIVER")
	setIfEnv(&cfg.Blob.FSRoot, "RULECORE_BLOB_FS_ROOT")
	setIfEnv(&cfg.Logging.Level, "RULECORE_LOG_LEVEL")
	setIfEnv(&cfg.Logging.Format, "RULECORE_LOG_FORMAT")
	if v := os.Getenv("RULECORE_STRICT_SCOPE_POLICY"); v == "true" || v == "1" {
		cfg.Strict = true
	}
}

func setIfEnv(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}
