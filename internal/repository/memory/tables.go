// Package memory holds process-local point tables. They are safe for concurrent use and
// expose committed state atomically: a reader sees either all writes of a unit of work or none.
package memory

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/baharkarakas/point-wallet/internal/models"
	repo "github.com/baharkarakas/point-wallet/internal/repository"
)

type Option func(*Tables)

// WithClock overrides the time source used for UpdateMillis.
func WithClock(now func() time.Time) Option {
	return func(t *Tables) { t.now = now }
}

// WithLatency delays every table call by a uniform random duration in [min, max].
func WithLatency(min, max time.Duration) Option {
	return func(t *Tables) {
		if max < min {
			max = min
		}
		t.minDelay, t.maxDelay = min, max
	}
}

type Tables struct {
	mu        sync.RWMutex
	points    map[int64]models.UserPoint
	histories map[int64][]models.PointHistory
	seq       atomic.Int64

	now                func() time.Time
	minDelay, maxDelay time.Duration
}

func NewTables(opts ...Option) *Tables {
	t := &Tables{
		points:    make(map[int64]models.UserPoint),
		histories: make(map[int64][]models.PointHistory),
		now:       time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Repositories exposes the tables through the repository contracts.
func (t *Tables) Repositories() repo.Repositories {
	return repo.Repositories{
		Points:    pointTable{t},
		Histories: historyTable{t},
		Tx:        t,
	}
}

func (t *Tables) throttle(ctx context.Context) error {
	if t.maxDelay <= 0 {
		return ctx.Err()
	}
	d := t.minDelay
	if span := t.maxDelay - t.minDelay; span > 0 {
		d += time.Duration(rand.Int64N(int64(span) + 1))
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tables) selectPoint(userID int64) (models.UserPoint, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	up, ok := t.points[userID]
	return up, ok
}

func (t *Tables) materialise(userID int64) models.UserPoint {
	if up, ok := t.selectPoint(userID); ok {
		return up
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if up, ok := t.points[userID]; ok {
		return up
	}
	up := models.EmptyUserPoint(userID, t.now())
	t.points[userID] = up
	return up
}

func (t *Tables) historiesOf(userID int64) []models.PointHistory {
	t.mu.RLock()
	defer t.mu.RUnlock()
	src := t.histories[userID]
	out := make([]models.PointHistory, len(src))
	copy(out, src)
	return out
}

// InTx stages writes made through fn and applies them under one table lock.
// Nothing is applied when fn returns an error.
func (t *Tables) InTx(ctx context.Context, fn func(repo.UserPoints, repo.PointHistories) error) error {
	tx := &stagedTx{t: t, points: make(map[int64]models.UserPoint)}
	if err := fn(txPoints{tx}, txHistories{tx}); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, h := range tx.histories {
		t.histories[h.UserID] = append(t.histories[h.UserID], h)
	}
	for id, up := range tx.points {
		t.points[id] = up
	}
	return nil
}

type pointTable struct{ t *Tables }

func (p pointTable) SelectByID(ctx context.Context, userID int64) (models.UserPoint, error) {
	if err := p.t.throttle(ctx); err != nil {
		return models.UserPoint{}, err
	}
	return p.t.materialise(userID), nil
}

func (p pointTable) InsertOrUpdate(ctx context.Context, userID, point int64) (models.UserPoint, error) {
	if err := p.t.throttle(ctx); err != nil {
		return models.UserPoint{}, err
	}
	up := models.UserPoint{ID: userID, Point: point, UpdateMillis: p.t.now().UnixMilli()}
	p.t.mu.Lock()
	p.t.points[userID] = up
	p.t.mu.Unlock()
	return up, nil
}

type historyTable struct{ t *Tables }

func (h historyTable) Insert(ctx context.Context, userID, amount int64, typ models.TransactionType, updateMillis int64) (models.PointHistory, error) {
	if err := h.t.throttle(ctx); err != nil {
		return models.PointHistory{}, err
	}
	rec := models.PointHistory{
		UserID:       userID,
		Amount:       amount,
		Type:         typ,
		UpdateMillis: updateMillis,
	}
	h.t.mu.Lock()
	rec.ID = h.t.seq.Add(1)
	h.t.histories[userID] = append(h.t.histories[userID], rec)
	h.t.mu.Unlock()
	return rec, nil
}

func (h historyTable) SelectAllByUserID(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	if err := h.t.throttle(ctx); err != nil {
		return nil, err
	}
	return h.t.historiesOf(userID), nil
}
