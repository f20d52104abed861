package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/baharkarakas/point-wallet/internal/models"
	repo "github.com/baharkarakas/point-wallet/internal/repository"
)

type UserPointsMock struct {
	mock.Mock
}

func (m *UserPointsMock) SelectByID(ctx context.Context, userID int64) (models.UserPoint, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.UserPoint), args.Error(1)
}

func (m *UserPointsMock) InsertOrUpdate(ctx context.Context, userID, point int64) (models.UserPoint, error) {
	args := m.Called(ctx, userID, point)
	return args.Get(0).(models.UserPoint), args.Error(1)
}

type PointHistoriesMock struct {
	mock.Mock
}

func (m *PointHistoriesMock) Insert(ctx context.Context, userID, amount int64, t models.TransactionType, updateMillis int64) (models.PointHistory, error) {
	args := m.Called(ctx, userID, amount, t, updateMillis)
	return args.Get(0).(models.PointHistory), args.Error(1)
}

func (m *PointHistoriesMock) SelectAllByUserID(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	args := m.Called(ctx, userID)
	hs, _ := args.Get(0).([]models.PointHistory)
	return hs, args.Error(1)
}

// TransactorMock hands Points and Histories to fn unless a begin error is configured.
type TransactorMock struct {
	mock.Mock
	Points    repo.UserPoints
	Histories repo.PointHistories
}

func (m *TransactorMock) InTx(ctx context.Context, fn func(repo.UserPoints, repo.PointHistories) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m.Points, m.Histories)
}

// panicPoints blows up on every read.
type panicPoints struct{}

func (panicPoints) SelectByID(context.Context, int64) (models.UserPoint, error) {
	panic("store exploded")
}

func (panicPoints) InsertOrUpdate(context.Context, int64, int64) (models.UserPoint, error) {
	panic("store exploded")
}
