package models

import "time"

// UserPoint is a user's wallet: the current point balance and when it last changed.
type UserPoint struct {
	ID           int64 `json:"id"`
	Point        int64 `json:"point"`
	UpdateMillis int64 `json:"updateMillis"`
}

func EmptyUserPoint(id int64, now time.Time) UserPoint {
	return UserPoint{ID: id, Point: 0, UpdateMillis: now.UnixMilli()}
}
