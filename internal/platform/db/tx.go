package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const txKey contextKey = "db_tx"

// TxRunner executes a function inside a database transaction. The booking,
// ordering and payment services depend on this interface rather than on the
// pool so tests can substitute a pass-through runner.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PoolRunner is the production TxRunner backed by a pgx connection pool.
// The transaction is stored in the context; repositories pick it up via
// ConnFromContext so every statement issued inside fn joins the same
// transaction.
type PoolRunner struct {
	Pool *pgxpool.Pool
}

func NewPoolRunner(pool *pgxpool.Pool) *PoolRunner {
	return &PoolRunner{Pool: pool}
}

func (r *PoolRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RunnerFunc adapts a function to the TxRunner interface. Service tests use
// RunnerFunc(PassThrough) so transactional code paths run without a database.
type RunnerFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func (f RunnerFunc) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// PassThrough invokes fn directly with no transaction.
func PassThrough(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ConnFromContext returns the transaction started by a surrounding
// RunInTx call, or nil when the statement should run against the pool.
func ConnFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}
