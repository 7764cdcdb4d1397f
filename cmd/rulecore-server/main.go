// Command rulecore-server runs the rule governance HTTP service.
package main

import (
	"context"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rulecore/internal/adapters/rulesapi"
	blobcore "rulecore/internal/blob/core"
	"rulecore/internal/core"
	blobfs "rulecore/internal/infra/blob/fs"
	blobmemory "rulecore/internal/infra/blob/memory"
	blobs3 "rulecore/internal/infra/blob/s3"
	"rulecore/internal/infra/persistence/memory"
	"rulecore/internal/infra/persistence/postgres"
	"rulecore/internal/infra/persistence/sqlite"
)

func main() {
	configPath := flag.String("config", os.Getenv("RULECORE_CONFIG"), "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	archive, err := openBlobStore(cfg.Blob)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := core.NewPrometheusMetricsRecorder(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	opts := []core.ServiceOption{
		core.WithLogger(core.NewSlogLogger(logger)),
		core.WithMetrics(recorder),
	}
	if archive != nil {
		opts = append(opts, core.WithArchiveStore(archive))
	}
	if cfg.Strict {
		opts = append(opts, core.WithScopePolicy(core.StrictScopePolicy))
	}
	service := core.NewService(store, opts...)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", rulesapi.NewHandler(service))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "storage", cfg.Storage.Driver, "blob", cfg.Blob.Driver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

func buildLogger(cfg LoggingConfig) (*slog.Logger, error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "", "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return slog.New(handler), nil
}

func openStore(cfg StorageConfig) (core.PersistentStore, func(), error) {
	noop := func() {}
	switch core.StorageDriver(cfg.Driver) {
	case core.StorageMemory:
		return memory.NewStore(), noop, nil
	case core.StorageSQLite, "":
		store, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case core.StoragePostgres:
		store, err := postgres.NewStore(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}

func openBlobStore(cfg BlobConfig) (blobcore.Store, error) {
	switch blobcore.Driver(cfg.Driver) {
	case blobcore.DriverFilesystem, "":
		return blobfs.New(cfg.FSRoot)
	case blobcore.DriverMemory:
		return blobmemory.New(), nil
	case blobcore.DriverS3:
		return blobs3.OpenFromEnv(context.Background())
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}
