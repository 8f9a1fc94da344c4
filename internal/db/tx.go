package db

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TxStarter é satisfeito por *pgxpool.Pool e *pgx.Conn.
type TxStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// WithTx executa uma função dentro de uma transação explicita.
func WithTx(ctx context.Context, starter TxStarter, fn func(pctx context.Context, tx pgx.Tx) error) error {
	tx, err := starter.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
