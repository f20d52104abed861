package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/point-wallet/internal/locks"
	"github.com/baharkarakas/point-wallet/internal/models"
	repo "github.com/baharkarakas/point-wallet/internal/repository"
	"github.com/baharkarakas/point-wallet/internal/repository/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	svc   *PointService
	repos repo.Repositories
	locks *locks.Registry
}

func newFixture(t *testing.T, opts ...memory.Option) fixture {
	t.Helper()
	r := memory.NewTables(opts...).Repositories()
	l := locks.NewRegistry()
	return fixture{svc: NewPointService(r, l, discardLogger()), repos: r, locks: l}
}

// seed charges the user up to balance so it has exactly one history record.
func (f fixture) seed(t *testing.T, userID, balance int64) {
	t.Helper()
	_, err := f.svc.Charge(context.Background(), userID, balance)
	require.NoError(t, err)
}

func (f fixture) historyLen(t *testing.T, userID int64) int {
	t.Helper()
	hs, err := f.repos.Histories.SelectAllByUserID(context.Background(), userID)
	require.NoError(t, err)
	return len(hs)
}

func TestWalletMutator_Charge(t *testing.T) {
	ctx := context.Background()

	var tests = []struct {
		name        string
		seed        int64
		amount      int64
		want        int64
		expectedErr error
	}{
		{name: "adds to balance", seed: 10, amount: 90, want: 100},
		{name: "exact limit", seed: 900_000, amount: 100_000, want: models.MaxBalance},
		{name: "zero amount", seed: 10, amount: 0, want: 10},
		{name: "limit exceeded", seed: 900_000, amount: 100_001, want: 900_000, expectedErr: ErrLimitExceeded},
		{name: "negative amount", seed: 10, amount: -1, want: 10, expectedErr: ErrInvalidAmount},
		{name: "amount above max balance", seed: 0, amount: models.MaxBalance + 1, want: 0, expectedErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.seed(t, 1, tt.seed)

			up, err := f.svc.Charge(ctx, 1, tt.amount)

			bal, berr := f.svc.Balance(ctx, 1)
			require.NoError(t, berr)
			assert.Equal(t, tt.want, bal.Point)

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				assert.Equal(t, 1, f.historyLen(t, 1))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, up.Point)
			assert.Equal(t, bal, up)

			hs, err := f.svc.History(ctx, 1)
			require.NoError(t, err)
			require.Len(t, hs, 2)
			assert.Equal(t, models.TxnCharge, hs[1].Type)
			assert.Equal(t, tt.amount, hs[1].Amount)
		})
	}
}

func TestWalletMutator_Use(t *testing.T) {
	ctx := context.Background()

	var tests = []struct {
		name        string
		seed        int64
		amount      int64
		want        int64
		expectedErr error
	}{
		{name: "takes from balance", seed: 100, amount: 40, want: 60},
		{name: "down to zero", seed: 100, amount: 100, want: 0},
		{name: "zero amount", seed: 5, amount: 0, want: 5},
		{name: "insufficient balance", seed: 1, amount: 2, want: 1, expectedErr: ErrInsufficientBalance},
		{name: "negative amount", seed: 10, amount: -5, want: 10, expectedErr: ErrInvalidAmount},
		{name: "amount above max balance", seed: 10, amount: models.MaxBalance + 1, want: 10, expectedErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.seed(t, 1, tt.seed)

			up, err := f.svc.Use(ctx, 1, tt.amount)

			bal, berr := f.svc.Balance(ctx, 1)
			require.NoError(t, berr)
			assert.Equal(t, tt.want, bal.Point)

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				assert.Equal(t, 1, f.historyLen(t, 1))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, up.Point)

			hs, err := f.svc.History(ctx, 1)
			require.NoError(t, err)
			require.Len(t, hs, 2)
			assert.Equal(t, models.TxnUse, hs[1].Type)
			assert.Equal(t, tt.amount, hs[1].Amount)
		})
	}
}

func TestWalletMutator_ZeroChargeRefreshesTimestamp(t *testing.T) {
	ctx := context.Background()
	var ms int64 = 1_000
	clock := func() time.Time { return time.UnixMilli(ms) }
	r := memory.NewTables(memory.WithClock(clock)).Repositories()
	svc := NewPointService(r, locks.NewRegistry(), discardLogger(), WithClock(clock))

	_, err := svc.Charge(ctx, 1, 10)
	require.NoError(t, err)

	ms = 2_000
	up, err := svc.Charge(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2_000), up.UpdateMillis)

	hs, err := svc.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	assert.Equal(t, int64(2_000), hs[1].UpdateMillis)
}

func TestWalletMutator_StoreFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	var tests = []struct {
		name  string
		setup func(p *UserPointsMock, h *PointHistoriesMock, tx *TransactorMock)
	}{
		{
			name: "select user point",
			setup: func(p *UserPointsMock, h *PointHistoriesMock, tx *TransactorMock) {
				p.On("SelectByID", mock.Anything, int64(1)).Return(models.UserPoint{}, boom)
			},
		},
		{
			name: "begin unit of work",
			setup: func(p *UserPointsMock, h *PointHistoriesMock, tx *TransactorMock) {
				p.On("SelectByID", mock.Anything, int64(1)).Return(models.UserPoint{ID: 1, Point: 5}, nil)
				tx.On("InTx", mock.Anything).Return(boom)
			},
		},
		{
			name: "insert history",
			setup: func(p *UserPointsMock, h *PointHistoriesMock, tx *TransactorMock) {
				p.On("SelectByID", mock.Anything, int64(1)).Return(models.UserPoint{ID: 1, Point: 5}, nil)
				tx.On("InTx", mock.Anything).Return(nil)
				h.On("Insert", mock.Anything, int64(1), int64(10), models.TxnCharge, mock.Anything).Return(models.PointHistory{}, boom)
			},
		},
		{
			name: "update user point",
			setup: func(p *UserPointsMock, h *PointHistoriesMock, tx *TransactorMock) {
				p.On("SelectByID", mock.Anything, int64(1)).Return(models.UserPoint{ID: 1, Point: 5}, nil)
				tx.On("InTx", mock.Anything).Return(nil)
				h.On("Insert", mock.Anything, int64(1), int64(10), models.TxnCharge, mock.Anything).Return(models.PointHistory{ID: 1}, nil)
				p.On("InsertOrUpdate", mock.Anything, int64(1), int64(15)).Return(models.UserPoint{}, boom)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			points := new(UserPointsMock)
			histories := new(PointHistoriesMock)
			tx := &TransactorMock{Points: points, Histories: histories}
			tt.setup(points, histories, tx)

			l := locks.NewRegistry()
			m := NewWalletMutator(points, tx, l, discardLogger())

			_, err := m.Charge(ctx, 1, 10)
			require.ErrorIs(t, err, ErrStoreFailure)
			require.ErrorIs(t, err, boom)
			assert.Equal(t, "store_failure", Outcome(err))
			assert.Zero(t, l.Len(), "lock must be released")

			points.AssertExpectations(t)
			histories.AssertExpectations(t)
			tx.AssertExpectations(t)
		})
	}
}

func TestWalletMutator_ValidationSkipsStores(t *testing.T) {
	points := new(UserPointsMock)
	tx := &TransactorMock{}
	m := NewWalletMutator(points, tx, locks.NewRegistry(), discardLogger())

	_, err := m.Use(context.Background(), 1, -1)
	require.ErrorIs(t, err, ErrInvalidAmount)
	points.AssertNotCalled(t, "SelectByID", mock.Anything, mock.Anything)
	tx.AssertNotCalled(t, "InTx", mock.Anything)
}

func TestWalletMutator_PanicReleasesLock(t *testing.T) {
	l := locks.NewRegistry()
	m := NewWalletMutator(panicPoints{}, &TransactorMock{}, l, discardLogger())

	require.Panics(t, func() { _, _ = m.Charge(context.Background(), 1, 10) })
	assert.Zero(t, l.Len())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	h, err := l.Acquire(ctx, 1)
	require.NoError(t, err)
	h.Release()
}

func TestWalletMutator_CanceledWhileWaiting(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 1, 100)

	h, err := f.locks.Acquire(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.svc.Use(ctx, 1, 10)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "canceled", Outcome(err))
	h.Release()

	bal, err := f.svc.Balance(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal.Point)
	assert.Equal(t, 1, f.historyLen(t, 1))
}

func TestWalletMutator_CanceledBeforeStart(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Charge(ctx, 1, 10)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.historyLen(t, 1))
	assert.Zero(t, f.locks.Len())
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "invalid_amount", Outcome(ErrInvalidAmount))
	assert.Equal(t, "limit_exceeded", Outcome(ErrLimitExceeded))
	assert.Equal(t, "insufficient_balance", Outcome(ErrInsufficientBalance))
	assert.Equal(t, "invalid_type", Outcome(ErrInvalidType))
	assert.Equal(t, "store_failure", Outcome(storeErr("x", context.DeadlineExceeded)))
	assert.Equal(t, "panic", Outcome(ErrPanic))
	assert.Equal(t, "canceled", Outcome(context.Canceled))
	assert.Equal(t, "error", Outcome(errors.New("other")))
}
