package postgres

import (
	"context"

	"github.com/baharkarakas/point-wallet/internal/models"
)

type historiesRepo struct{ q querier }

func (r *historiesRepo) Insert(ctx context.Context, userID, amount int64, t models.TransactionType, updateMillis int64) (models.PointHistory, error) {
	var h models.PointHistory
	err := r.q.QueryRow(ctx,
		`INSERT INTO point_history(user_id, amount, type, update_millis)
		 VALUES($1, $2, $3, $4)
		 RETURNING id, user_id, amount, type, update_millis`,
		userID, amount, string(t), updateMillis,
	).Scan(&h.ID, &h.UserID, &h.Amount, &h.Type, &h.UpdateMillis)
	return h, err
}

func (r *historiesRepo) SelectAllByUserID(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, user_id, amount, type, update_millis
		   FROM point_history
		  WHERE user_id=$1
		  ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.PointHistory{}
	for rows.Next() {
		var h models.PointHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.Amount, &h.Type, &h.UpdateMillis); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
