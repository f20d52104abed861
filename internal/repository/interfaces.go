package repository

import (
	"context"

	"github.com/baharkarakas/point-wallet/internal/models"
)

// UserPoints is the wallet table. SelectByID materialises a zero balance for an unknown user.
type UserPoints interface {
	SelectByID(ctx context.Context, userID int64) (models.UserPoint, error)
	InsertOrUpdate(ctx context.Context, userID, point int64) (models.UserPoint, error)
}

// PointHistories is the append-only transaction log.
type PointHistories interface {
	Insert(ctx context.Context, userID, amount int64, t models.TransactionType, updateMillis int64) (models.PointHistory, error)
	// SelectAllByUserID returns records in insertion order.
	SelectAllByUserID(ctx context.Context, userID int64) ([]models.PointHistory, error)
}

// Transactor runs fn against stores bound to a single unit of work.
// Either every write made through them becomes visible or none does.
type Transactor interface {
	InTx(ctx context.Context, fn func(points UserPoints, histories PointHistories) error) error
}

// Repositories groups the collaborators a point service needs.
type Repositories struct {
	Points    UserPoints
	Histories PointHistories
	Tx        Transactor
}
