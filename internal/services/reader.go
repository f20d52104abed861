package services

import (
	"context"

	"github.com/baharkarakas/point-wallet/internal/models"
	repo "github.com/baharkarakas/point-wallet/internal/repository"
)

// WalletReader serves balance and history without taking user locks.
type WalletReader struct {
	points    repo.UserPoints
	histories repo.PointHistories
}

func NewWalletReader(points repo.UserPoints, histories repo.PointHistories) *WalletReader {
	return &WalletReader{points: points, histories: histories}
}

// Balance returns the user's wallet, creating an empty one for an unknown user.
func (r *WalletReader) Balance(ctx context.Context, userID int64) (models.UserPoint, error) {
	up, err := r.points.SelectByID(ctx, userID)
	if err != nil {
		return models.UserPoint{}, storeErr("select user point", err)
	}
	return up, nil
}

// History returns the user's records oldest first.
func (r *WalletReader) History(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	hs, err := r.histories.SelectAllByUserID(ctx, userID)
	if err != nil {
		return nil, storeErr("select point history", err)
	}
	if hs == nil {
		hs = []models.PointHistory{}
	}
	return hs, nil
}
