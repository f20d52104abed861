package models

// Wallet policy limits. Amounts are inclusive at both ends.
const (
	MaxBalance int64 = 1_000_000
	MinAmount  int64 = 0
)
