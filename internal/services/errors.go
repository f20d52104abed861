package services

import (
	"context"
	"errors"
	"fmt"
)

// Failure kinds. Match with errors.Is; messages carry detail and are not stable.
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrLimitExceeded       = errors.New("balance limit exceeded")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrStoreFailure        = errors.New("store failure")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrPanic               = errors.New("mutation panicked")
)

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreFailure, op, err)
}

// Outcome names an error kind for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrInvalidType):
		return "invalid_type"
	case errors.Is(err, ErrStoreFailure):
		return "store_failure"
	case errors.Is(err, ErrPanic):
		return "panic"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
