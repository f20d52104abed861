package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/baharkarakas/point-wallet/internal/locks"
	"github.com/baharkarakas/point-wallet/internal/metrics"
	"github.com/baharkarakas/point-wallet/internal/models"
	repo "github.com/baharkarakas/point-wallet/internal/repository"
)

// WalletMutator applies charge and use under the owning user's lock. For one user the
// read, validation, history append and balance write run as a single critical section.
type WalletMutator struct {
	points repo.UserPoints
	tx     repo.Transactor
	locks  *locks.Registry
	log    *slog.Logger
	now    func() time.Time
}

func NewWalletMutator(points repo.UserPoints, tx repo.Transactor, l *locks.Registry, log *slog.Logger) *WalletMutator {
	if log == nil {
		log = slog.Default()
	}
	return &WalletMutator{
		points: points,
		tx:     tx,
		locks:  l,
		log:    log.With("component", "wallet_mutator"),
		now:    time.Now,
	}
}

// Charge adds amount to the user's balance.
func (m *WalletMutator) Charge(ctx context.Context, userID, amount int64) (models.UserPoint, error) {
	return m.mutate(ctx, userID, amount, models.TxnCharge)
}

// Use takes amount from the user's balance.
func (m *WalletMutator) Use(ctx context.Context, userID, amount int64) (models.UserPoint, error) {
	return m.mutate(ctx, userID, amount, models.TxnUse)
}

func (m *WalletMutator) mutate(ctx context.Context, userID, amount int64, typ models.TransactionType) (up models.UserPoint, err error) {
	waitStart := time.Now()
	h, err := m.locks.Acquire(ctx, userID)
	if err != nil {
		m.finish(ctx, typ, userID, amount, err)
		return models.UserPoint{}, fmt.Errorf("acquire lock for user %d: %w", userID, err)
	}
	acquired := time.Now()
	metrics.LockWait.Observe(acquired.Sub(waitStart).Seconds())
	m.log.DebugContext(ctx, "lock acquired", "user_id", userID, "type", typ, "at_ms", acquired.UnixMilli())

	defer func() {
		h.Release()
		held := time.Since(acquired)
		metrics.LockHold.Observe(held.Seconds())
		m.log.DebugContext(ctx, "lock released", "user_id", userID, "type", typ, "held", held)
		if p := recover(); p != nil {
			metrics.MutationsTotal.WithLabelValues(string(typ), "panic").Inc()
			m.log.ErrorContext(ctx, "point mutation panicked", "user_id", userID, "type", typ, "panic", p)
			panic(p)
		}
		m.finish(ctx, typ, userID, amount, err)
	}()

	if err := ctx.Err(); err != nil {
		return models.UserPoint{}, err
	}
	if amount < models.MinAmount || amount > models.MaxBalance {
		return models.UserPoint{}, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidAmount, amount, models.MinAmount, models.MaxBalance)
	}

	// past this point the work either commits fully or fails on a store error
	ctx = context.WithoutCancel(ctx)

	current, err := m.points.SelectByID(ctx, userID)
	if err != nil {
		return models.UserPoint{}, storeErr("select user point", err)
	}
	next, err := apply(typ, current.Point, amount)
	if err != nil {
		return models.UserPoint{}, err
	}

	stamp := m.now().UnixMilli()
	err = m.tx.InTx(ctx, func(points repo.UserPoints, histories repo.PointHistories) error {
		if _, err := histories.Insert(ctx, userID, amount, typ, stamp); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
		var err error
		up, err = points.InsertOrUpdate(ctx, userID, next)
		if err != nil {
			return fmt.Errorf("update user point: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.UserPoint{}, storeErr("commit", err)
	}
	return up, nil
}

func apply(typ models.TransactionType, current, amount int64) (int64, error) {
	switch typ {
	case models.TxnCharge:
		next := current + amount
		if next > models.MaxBalance {
			return 0, fmt.Errorf("%w: %d + %d > %d", ErrLimitExceeded, current, amount, models.MaxBalance)
		}
		return next, nil
	case models.TxnUse:
		next := current - amount
		if next < 0 {
			return 0, fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, current, amount)
		}
		return next, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}
}

func (m *WalletMutator) finish(ctx context.Context, typ models.TransactionType, userID, amount int64, err error) {
	outcome := Outcome(err)
	metrics.MutationsTotal.WithLabelValues(string(typ), outcome).Inc()
	switch outcome {
	case "ok":
	case "store_failure", "error":
		m.log.ErrorContext(ctx, "point mutation failed", "user_id", userID, "type", typ, "amount", amount, "err", err)
	default:
		m.log.WarnContext(ctx, "point mutation rejected", "user_id", userID, "type", typ, "amount", amount, "outcome", outcome, "err", err)
	}
}
