package postgres

import (
	"context"

	repo "github.com/baharkarakas/point-wallet/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// beginner opens the transaction behind InTx.
type beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

type dbtx interface {
	querier
	beginner
}

func NewRepositories(pool *pgxpool.Pool) repo.Repositories {
	return newRepositories(pool)
}

func newRepositories(db dbtx) repo.Repositories {
	return repo.Repositories{
		Points:    &pointsRepo{q: db},
		Histories: &historiesRepo{q: db},
		Tx:        &transactor{db: db},
	}
}
