package memory

import (
	"context"

	"github.com/baharkarakas/point-wallet/internal/models"
)

// stagedTx buffers writes until InTx applies them.
// Reads through it see its own pending writes layered over committed state.
type stagedTx struct {
	t         *Tables
	points    map[int64]models.UserPoint
	histories []models.PointHistory
}

type txPoints struct{ tx *stagedTx }

func (p txPoints) SelectByID(ctx context.Context, userID int64) (models.UserPoint, error) {
	if err := p.tx.t.throttle(ctx); err != nil {
		return models.UserPoint{}, err
	}
	if up, ok := p.tx.points[userID]; ok {
		return up, nil
	}
	return p.tx.t.materialise(userID), nil
}

func (p txPoints) InsertOrUpdate(ctx context.Context, userID, point int64) (models.UserPoint, error) {
	if err := p.tx.t.throttle(ctx); err != nil {
		return models.UserPoint{}, err
	}
	up := models.UserPoint{ID: userID, Point: point, UpdateMillis: p.tx.t.now().UnixMilli()}
	p.tx.points[userID] = up
	return up, nil
}

type txHistories struct{ tx *stagedTx }

func (h txHistories) Insert(ctx context.Context, userID, amount int64, typ models.TransactionType, updateMillis int64) (models.PointHistory, error) {
	if err := h.tx.t.throttle(ctx); err != nil {
		return models.PointHistory{}, err
	}
	rec := models.PointHistory{
		ID:           h.tx.t.seq.Add(1),
		UserID:       userID,
		Amount:       amount,
		Type:         typ,
		UpdateMillis: updateMillis,
	}
	h.tx.histories = append(h.tx.histories, rec)
	return rec, nil
}

func (h txHistories) SelectAllByUserID(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	if err := h.tx.t.throttle(ctx); err != nil {
		return nil, err
	}
	out := h.tx.t.historiesOf(userID)
	for _, rec := range h.tx.histories {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}
