package validate

import (
	"strconv"
	"strings"
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string {
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

// Collect drops nil checks and returns nil when nothing failed.
func Collect(checks ...*ErrField) error {
	var errs Errs
	for _, c := range checks {
		if c != nil {
			errs = append(errs, *c)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// UserID parses a path or body user id, which must be a positive integer.
func UserID(field, raw string) (int64, *ErrField) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, &ErrField{Field: field, Msg: "must be an integer"}
	}
	if ef := MinInt(field, id, 1); ef != nil {
		return 0, ef
	}
	return id, nil
}

func Required[T any](field string, v *T) *ErrField {
	if v == nil {
		return &ErrField{Field: field, Msg: "required"}
	}
	return nil
}

func MinInt(field string, v, min int64) *ErrField {
	if v < min {
		return &ErrField{Field: field, Msg: "must be >= " + strconv.FormatInt(min, 10)}
	}
	return nil
}

func Len(field string, n, min, max int) *ErrField {
	if n < min || n > max {
		return &ErrField{Field: field, Msg: "length must be in [" + strconv.Itoa(min) + ", " + strconv.Itoa(max) + "]"}
	}
	return nil
}
