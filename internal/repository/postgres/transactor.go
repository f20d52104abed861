package postgres

import (
	"context"

	repo "github.com/baharkarakas/point-wallet/internal/repository"
	"github.com/jackc/pgx/v5"
)

type transactor struct{ db beginner }

// InTx runs fn with repositories bound to a single pgx transaction.
// Per-user serialisation happens above this layer, so read committed is enough.
func (t *transactor) InTx(ctx context.Context, fn func(repo.UserPoints, repo.PointHistories) error) error {
	tx, err := t.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	if err := fn(&pointsRepo{q: tx}, &historiesRepo{q: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
