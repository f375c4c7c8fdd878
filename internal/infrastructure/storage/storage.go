// Package storage opens the document store selected by configuration.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"billing/internal/core/numerator"
	"billing/internal/core/tx"
	"billing/internal/domain/documents/certificate"
	"billing/internal/domain/documents/challan"
	"billing/internal/domain/documents/estimate"
	"billing/internal/domain/documents/invoice"
	"billing/internal/infrastructure/config"
	"billing/internal/infrastructure/migration"
	"billing/internal/infrastructure/storage/postgres"
	"billing/internal/infrastructure/storage/postgres/document_repo"
	"billing/internal/infrastructure/storage/sqlite"
	"billing/pkg/logger"
)

// Storage bundles the repositories of one backend with its transaction manager.
type Storage struct {
	TxManager tx.Manager
	Health    Pinger
	Numbers   numerator.Store

	Invoices     invoice.Repository
	Challans     challan.Repository
	Estimates    estimate.Repository
	Certificates certificate.Repository

	// Collector exports connection pool statistics
	Collector prometheus.Collector

	close func()
}

// Pinger reports whether the backend can serve requests.
type Pinger interface {
	Ready(ctx context.Context) error
}

// Close releases the backend.
func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open connects to the backend named by cfg.Driver. Postgres schemas are
// migrated when cfg.AutoMigrate is set; SQLite creates its schema on open.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*Storage, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, log)
	case config.DriverSQLite:
		return openSQLite(ctx, cfg, log)
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*Storage, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DSN)
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	log.Infow("postgres pool ready",
		"max_conns", poolCfg.MaxConns,
		"min_conns", poolCfg.MinConns)

	if cfg.AutoMigrate {
		m, closeDB, err := migration.NewFromPool(pool, cfg.MigrationsPath, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init migrations: %w", err)
		}
		err = m.Up()
		_ = closeDB()
		if err != nil {
			pool.Close()
			return nil, err
		}
	}

	txm := postgres.NewTxManager(pool)
	return &Storage{
		TxManager:    txm,
		Health:       pool,
		Numbers:      document_repo.NewNumberStore(txm),
		Invoices:     document_repo.NewInvoiceRepo(txm),
		Challans:     document_repo.NewChallanRepo(txm),
		Estimates:    document_repo.NewEstimateRepo(txm),
		Certificates: document_repo.NewCertificateRepo(txm),
		Collector:    postgres.NewPoolCollector(pool),
		close:        pool.Close,
	}, nil
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*Storage, error) {
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sqlite.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	log.Infow("sqlite database opened", "path", cfg.SQLitePath)

	txm := sqlite.NewTxManager(db)
	return &Storage{
		TxManager:    txm,
		Health:       txm,
		Numbers:      sqlite.NewNumberStore(txm),
		Invoices:     sqlite.NewInvoiceRepo(txm),
		Challans:     sqlite.NewChallanRepo(txm),
		Estimates:    sqlite.NewEstimateRepo(txm),
		Certificates: sqlite.NewCertificateRepo(txm),
		Collector:    collectors.NewDBStatsCollector(db, "sqlite"),
		close:        func() { _ = db.Close() },
	}, nil
}
