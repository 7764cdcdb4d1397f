package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Storage.Driver != "sqlite" || cfg.Blob.Driver != "fs" {
		t.Fatalf("defaults wrong: %+v", cfg)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("default log level wrong: %+v", cfg.Logging)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	payload := `
addr: ":9090"
storage:
  driver: postgres
  postgres_dsn: postgres://db/rules
blob:
  driver: s3
logging:
  level: debug
  format: json
strict_scope_policy: true
`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.Storage.Driver != "postgres" || cfg.Storage.PostgresDSN != "postgres://db/rules" {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.Blob.Driver != "s3" || cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" || !cfg.Strict {
		t.Fatalf("file values lost: %+v", cfg)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("RULECORE_ADDR", ":7070")
	t.Setenv("RULECORE_STORAGE_DRIVER", "memory")
	t.Setenv("RULECORE_BLOB_DRIVER", "memory")
	t.Setenv("RULECORE_LOG_LEVEL", "warn")
	t.Setenv("RULECORE_STRICT_SCOPE_POLICY", "1")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.Storage.Driver != "memory" || cfg.Blob.Driver != "memory" {
		t.Fatalf("env overrides lost: %+v", cfg)
	}
	if cfg.Logging.Level != "warn" || !cfg.Strict {
		t.Fatalf("env overrides lost: %+v", cfg)
	}
}

func TestLoadConfigRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\nnot yaml: [\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("invalid yaml must error")
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file must error")
	}
}

func TestBuildLoggerValidation(t *testing.T) {
	if _, err := buildLogger(LoggingConfig{Level: "debug", Format: "json"}); err != nil {
		t.Fatalf("valid logger config rejected: %v", err)
	}
	if _, err := buildLogger(LoggingConfig{Level: "loud"}); err == nil {
		t.Fatalf("unknown level must error")
	}
	if _, err := buildLogger(LoggingConfig{Format: "xml"}); err == nil {
		t.Fatalf("unknown format must error")
	}
}

func TestOpenStoreAndBlobSelection(t *testing.T) {
	store, closeStore, err := openStore(StorageConfig{Driver: "memory"})
	if err != nil || store == nil {
		t.Fatalf("memory store: %v", err)
	}
	closeStore()

	sqlitePath := filepath.Join(t.TempDir(), "rules.db")
	store, closeStore, err = openStore(StorageConfig{Driver: "sqlite", SQLitePath: sqlitePath})
	if err != nil || store == nil {
		t.Fatalf("sqlite store: %v", err)
	}
	closeStore()

	if _, _, err := openStore(StorageConfig{Driver: "etcd"}); err == nil {
		t.Fatalf("unknown storage driver must error")
	}

	blob, err := openBlobStore(BlobConfig{Driver: "memory"})
	if err != nil || blob == nil {
		t.Fatalf("memory blob: %v", err)
	}
	blob, err = openBlobStore(BlobConfig{Driver: "fs", FSRoot: t.TempDir()})
	if err != nil || blob == nil {
		t.Fatalf("fs blob: %v", err)
	}
	blob, err = openBlobStore(BlobConfig{Driver: "none"})
	if err != nil || blob != nil {
		t.Fatalf("none blob must be nil: %v", err)
	}
	if _, err := openBlobStore(BlobConfig{Driver: "tape"}); err == nil {
		t.Fatalf("unknown blob driver must error")
	}
}
