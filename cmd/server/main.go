// Package main is the entry point for the billing API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	corenumerator "billing/internal/core/numerator"
	"billing/internal/domain/documents/certificate"
	"billing/internal/domain/documents/challan"
	"billing/internal/domain/documents/estimate"
	"billing/internal/domain/documents/invoice"
	"billing/internal/infrastructure/config"
	v1 "billing/internal/infrastructure/http/v1"
	"billing/internal/infrastructure/numerator"
	"billing/internal/infrastructure/storage"
	"billing/pkg/logger"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		Fields:      map[string]any{"app": cfg.App.Name, "env": cfg.App.Env},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatalw("server failed", "error", err)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("starting billing server", "env", cfg.App.Env, "driver", cfg.Database.Driver)

	store, err := storage.Open(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	// --- Numerator Service ---
	loc, err := cfg.Numbering.Location()
	if err != nil {
		return err
	}
	typeConfigs, err := cfg.Numbering.NumeratorConfigs()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var metrics *numerator.Metrics
	if cfg.Metrics.Enabled {
		metrics = numerator.NewMetrics(registry)
		registry.MustRegister(store.Collector)
	}
	numberer := numerator.New(store.Numbers, numerator.Options{
		Org:         cfg.Numbering.Org,
		Types:       typeConfigs,
		MaxAttempts: cfg.Numbering.MaxAttempts,
		Location:    loc,
		Metrics:     metrics,
	})
	for _, dt := range corenumerator.DocumentTypes {
		typeCfg, _ := numberer.Config(dt)
		prefix, _ := numberer.PrefixFor(dt, time.Time{})
		log.WithDocumentType(string(dt)).Infow("numbering configured",
			"next_prefix", prefix,
			"style", typeCfg.Style.String(),
			"finder", typeCfg.Finder.String(),
			"floor", typeCfg.Floor)
	}

	// --- Router ---
	routerCfg := v1.RouterConfig{
		AppName:      cfg.App.Name,
		Logger:       log,
		DB:           store.Health,
		Driver:       cfg.Database.Driver,
		Numbering:    numberer,
		Invoices:     invoice.NewService(store.Invoices, numberer, store.TxManager),
		Challans:     challan.NewService(store.Challans, numberer, store.TxManager),
		Estimates:    estimate.NewService(store.Estimates, numberer, store.TxManager),
		Certificates: certificate.NewService(store.Certificates, numberer, store.TxManager, cfg.Numbering.CompanyName),
		MetricsPath:  cfg.Metrics.Path,
	}
	if cfg.Metrics.Enabled {
		routerCfg.Registry = registry
	}
	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// --- Graceful shutdown ---
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
