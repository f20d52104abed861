package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/baharkarakas/point-wallet/internal/locks"
	"github.com/baharkarakas/point-wallet/internal/models"
	repo "github.com/baharkarakas/point-wallet/internal/repository"
	"github.com/baharkarakas/point-wallet/internal/worker"
)

// PointService is the entry point used by transports: locked mutations, lock-free reads
// and batch submission.
type PointService struct {
	*WalletMutator
	*WalletReader
	pool       *worker.Pool
	batchLimit int
}

type Option func(*PointService)

// WithPool runs ApplyBatch items on p instead of one goroutine per item.
func WithPool(p *worker.Pool) Option {
	return func(s *PointService) { s.pool = p }
}

// WithBatchLimit caps concurrent ApplyBatch items when no pool is set. n <= 0 means no cap.
func WithBatchLimit(n int) Option {
	return func(s *PointService) {
		if n > 0 {
			s.batchLimit = n
		}
	}
}

// WithClock overrides the clock used to stamp history records.
func WithClock(now func() time.Time) Option {
	return func(s *PointService) { s.WalletMutator.now = now }
}

func NewPointService(r repo.Repositories, l *locks.Registry, log *slog.Logger, opts ...Option) *PointService {
	s := &PointService{
		WalletMutator: NewWalletMutator(r.Points, r.Tx, l, log),
		WalletReader:  NewWalletReader(r.Points, r.Histories),
		batchLimit:    -1,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type Mutation struct {
	UserID int64                  `json:"userId"`
	Type   models.TransactionType `json:"type"`
	Amount int64                  `json:"amount"`
}

type MutationResult struct {
	Point models.UserPoint
	Err   error
}

func (s *PointService) Apply(ctx context.Context, m Mutation) (models.UserPoint, error) {
	switch m.Type {
	case models.TxnCharge:
		return s.Charge(ctx, m.UserID, m.Amount)
	case models.TxnUse:
		return s.Use(ctx, m.UserID, m.Amount)
	default:
		return models.UserPoint{}, fmt.Errorf("%w: %q", ErrInvalidType, m.Type)
	}
}

// ApplyBatch runs every mutation concurrently and returns results in input order.
// Items for the same user are serialised by that user's lock, in no particular order.
// A panicking item yields ErrPanic for that item only.
func (s *PointService) ApplyBatch(ctx context.Context, ms []Mutation) []MutationResult {
	out := make([]MutationResult, len(ms))
	if s.pool == nil {
		var g errgroup.Group
		g.SetLimit(s.batchLimit)
		for i, m := range ms {
			g.Go(func() error {
				out[i] = s.applyItem(ctx, m)
				return nil
			})
		}
		_ = g.Wait()
		return out
	}

	var wg sync.WaitGroup
	for i, m := range ms {
		wg.Add(1)
		err := s.pool.Submit(ctx, func() {
			defer wg.Done()
			out[i] = s.applyItem(ctx, m)
		})
		if err != nil {
			wg.Done()
			out[i] = MutationResult{Err: err}
		}
	}
	wg.Wait()
	return out
}

func (s *PointService) applyItem(ctx context.Context, m Mutation) (res MutationResult) {
	defer func() {
		if p := recover(); p != nil {
			res = MutationResult{Err: fmt.Errorf("%w: user %d: %v", ErrPanic, m.UserID, p)}
		}
	}()
	up, err := s.Apply(ctx, m)
	return MutationResult{Point: up, Err: err}
}
