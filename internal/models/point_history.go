package models

type TransactionType string

const (
	TxnCharge TransactionType = "CHARGE"
	TxnUse    TransactionType = "USE"
)

func (t TransactionType) Valid() bool { return t == TxnCharge || t == TxnUse }

// PointHistory is one committed mutation. Amount is a magnitude; Type carries the sign.
type PointHistory struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"userId"`
	Amount       int64           `json:"amount"`
	Type         TransactionType `json:"type"`
	UpdateMillis int64           `json:"updateMillis"`
}

// Signed returns the amount as it affects the balance.
func (h PointHistory) Signed() int64 {
	if h.Type == TxnUse {
		return -h.Amount
	}
	return h.Amount
}
