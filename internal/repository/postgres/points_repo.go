package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/baharkarakas/point-wallet/internal/models"
	"github.com/jackc/pgx/v5"
)

type pointsRepo struct{ q querier }

func (r *pointsRepo) SelectByID(ctx context.Context, userID int64) (models.UserPoint, error) {
	up, err := r.get(ctx, userID)
	if err == nil {
		return up, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.UserPoint{}, err
	}
	_, err = r.q.Exec(ctx,
		`INSERT INTO user_point(id, point, update_millis)
		 VALUES($1, 0, $2)
		 ON CONFLICT (id) DO NOTHING`,
		userID, time.Now().UnixMilli(),
	)
	if err != nil {
		return models.UserPoint{}, err
	}
	return r.get(ctx, userID)
}

func (r *pointsRepo) InsertOrUpdate(ctx context.Context, userID, point int64) (models.UserPoint, error) {
	var up models.UserPoint
	err := r.q.QueryRow(ctx,
		`INSERT INTO user_point(id, point, update_millis)
		 VALUES($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		    SET point = EXCLUDED.point,
		        update_millis = EXCLUDED.update_millis
		 RETURNING id, point, update_millis`,
		userID, point, time.Now().UnixMilli(),
	).Scan(&up.ID, &up.Point, &up.UpdateMillis)
	return up, err
}

func (r *pointsRepo) get(ctx context.Context, userID int64) (models.UserPoint, error) {
	var up models.UserPoint
	err := r.q.QueryRow(ctx,
		`SELECT id, point, update_millis
		   FROM user_point
		  WHERE id=$1`,
		userID,
	).Scan(&up.ID, &up.Point, &up.UpdateMillis)
	return up, err
}
