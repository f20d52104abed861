package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/point-wallet/internal/api/httpx"
	"github.com/baharkarakas/point-wallet/internal/api/validate"
	"github.com/baharkarakas/point-wallet/internal/models"
	"github.com/baharkarakas/point-wallet/internal/services"
	"github.com/baharkarakas/point-wallet/internal/worker"
)

// MaxBatch caps the number of mutations accepted by one batch request.
const MaxBatch = 1000

type PointAPI interface {
	Balance(ctx context.Context, userID int64) (models.UserPoint, error)
	History(ctx context.Context, userID int64) ([]models.PointHistory, error)
	Charge(ctx context.Context, userID, amount int64) (models.UserPoint, error)
	Use(ctx context.Context, userID, amount int64) (models.UserPoint, error)
	ApplyBatch(ctx context.Context, ms []services.Mutation) []services.MutationResult
}

type Point struct {
	svc PointAPI
}

func NewPoint(svc PointAPI) *Point {
	return &Point{svc: svc}
}

type amountReq struct {
	Amount *int64 `json:"amount"`
}

type batchReq struct {
	Mutations []services.Mutation `json:"mutations"`
}

type batchItem struct {
	Point *models.UserPoint `json:"point,omitempty"`
	Error *httpx.APIError   `json:"error,omitempty"`
}

func (h *Point) Balance(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	up, err := h.svc.Balance(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, up)
}

func (h *Point) History(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	hs, err := h.svc.History(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, hs)
}

func (h *Point) Charge(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.Charge)
}

func (h *Point) Use(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.Use)
}

func (h *Point) mutate(w http.ResponseWriter, r *http.Request, op func(context.Context, int64, int64) (models.UserPoint, error)) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var req amountReq
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error(), nil)
		return
	}
	if err := validate.Collect(validate.Required("amount", req.Amount)); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "invalid request", err)
		return
	}
	up, err := op(r.Context(), id, *req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, up)
}

func (h *Point) Batch(w http.ResponseWriter, r *http.Request) {
	var req batchReq
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error(), nil)
		return
	}
	checks := []*validate.ErrField{validate.Len("mutations", len(req.Mutations), 1, MaxBatch)}
	for i, m := range req.Mutations {
		checks = append(checks, validate.MinInt(fmt.Sprintf("mutations[%d].userId", i), m.UserID, 1))
	}
	if err := validate.Collect(checks...); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "invalid request", err)
		return
	}

	results := h.svc.ApplyBatch(r.Context(), req.Mutations)
	out := make([]batchItem, len(results))
	for i, res := range results {
		if res.Err != nil {
			out[i].Error = apiError(res.Err)
			continue
		}
		up := res.Point
		out[i].Point = &up
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"results": out})
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ef := validate.UserID("id", chi.URLParam(r, "id"))
	if ef != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "invalid user id", validate.Errs{*ef})
		return 0, false
	}
	return id, true
}

func statusOf(err error) (int, string) {
	code := services.Outcome(err)
	switch code {
	case "invalid_amount", "invalid_type":
		return http.StatusBadRequest, code
	case "limit_exceeded", "insufficient_balance":
		return http.StatusUnprocessableEntity, code
	case "store_failure":
		return http.StatusInternalServerError, code
	case "canceled":
		return http.StatusServiceUnavailable, code
	}
	if errors.Is(err, worker.ErrStopped) {
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}

func apiError(err error) *httpx.APIError {
	status, code := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return &httpx.APIError{Error: msg, Code: code}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status, _ := statusOf(err)
	httpx.WriteJSON(w, status, apiError(err))
}
