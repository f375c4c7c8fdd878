package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"billing/internal/core/tx"
	"billing/pkg/logger"
)

var tracer = otel.Tracer("billing/tx")

// Compile-time check that TxManager implements tx.Manager interface.
var _ tx.Manager = (*TxManager)(nil)

// DefaultStatementTimeout bounds every statement run inside a managed transaction.
const DefaultStatementTimeout = 30 * time.Second

// TxOption configures a TxManager.
type TxOption func(*TxManager)

// WithStatementTimeout overrides DefaultStatementTimeout. Zero disables it.
func WithStatementTimeout(d time.Duration) TxOption {
	return func(m *TxManager) { m.statementTimeout = d }
}

// TxManager runs document writes in READ COMMITTED transactions carried by
// the context. Repositories join the active transaction through GetQuerier.
//
// A unique violation aborts the whole PostgreSQL transaction, so a nested
// call always runs under its own savepoint: a number allocation attempt that
// hits ErrDuplicateNumber rolls back to the savepoint and the outer
// transaction stays usable for the next attempt.
type TxManager struct {
	pool             *pgxpool.Pool
	statementTimeout time.Duration
}

// NewTxManager creates a new transaction manager.
func NewTxManager(pool *Pool, opts ...TxOption) *TxManager {
	m := &TxManager{pool: pool.Pool, statementTimeout: DefaultStatementTimeout}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type txKey struct{}

// Tx is the transaction stored in the context.
type Tx struct {
	pgx.Tx
	savepoints int
}

// RunInTransaction executes fn within a transaction.
// If ctx already carries one, fn runs under a savepoint inside it.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	existing := m.GetTx(ctx)

	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(attribute.Bool("tx.nested", existing != nil)))
	defer span.End()

	var err error
	if existing != nil {
		err = m.runInSavepoint(ctx, existing, fn)
	} else {
		err = m.runInNewTransaction(ctx, fn)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (m *TxManager) runInNewTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	pgTx, err := m.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if m.statementTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", m.statementTimeout.Milliseconds())
		if _, err := pgTx.Exec(ctx, stmt); err != nil {
			_ = pgTx.Rollback(context.Background())
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	if err := fn(context.WithValue(ctx, txKey{}, &Tx{Tx: pgTx})); err != nil {
		// Background context: the caller's ctx may already be cancelled
		if rbErr := pgTx.Rollback(context.Background()); rbErr != nil {
			logger.Error(ctx, "rollback failed", "error", rbErr, "original_error", err)
		}
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (m *TxManager) runInSavepoint(ctx context.Context, existing *Tx, fn func(ctx context.Context) error) error {
	existing.savepoints++
	name := fmt.Sprintf("sp_%d", existing.savepoints)

	if _, err := existing.Exec(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}

	if err := fn(ctx); err != nil {
		if _, rbErr := existing.Exec(context.Background(), "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			logger.Error(ctx, "rollback to savepoint failed", "savepoint", name, "error", rbErr)
		}
		return err
	}

	if _, err := existing.Exec(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

// GetTx returns the current transaction from context, or nil if none.
func (m *TxManager) GetTx(ctx context.Context) *Tx {
	if t, ok := ctx.Value(txKey{}).(*Tx); ok {
		return t
	}
	return nil
}

// Querier is satisfied by both the pool and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetQuerier returns the transaction in ctx, or the pool.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := m.GetTx(ctx); t != nil {
		return t.Tx
	}
	return m.pool
}
