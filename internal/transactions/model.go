package transactions

import "time"

// TransactionType enumerates how a payment was made.
type TransactionType string

const (
	TypeCash   TransactionType = "cash"
	TypeOnline TransactionType = "online"
)

// ValidType reports membership in the transaction type enum.
func ValidType(t TransactionType) bool {
	return t == TypeCash || t == TypeOnline
}

// Transaction is one recorded payment. The ledger is append-only; corrections
// are new entries, never edits. AdvanceAllocation marks entries that settle an
// order from a previously recorded advance payment rather than fresh money.
type Transaction struct {
	ID                int64           `json:"id"`
	OrderID           *int64          `json:"orderId,omitempty"`
	ClientID          int64           `json:"clientId"`
	Amount            float64         `json:"amount"`
	TransactionType   TransactionType `json:"transactionType"`
	PaymentMethod     *string         `json:"paymentMethod,omitempty"`
	ReferenceNo       *string         `json:"referenceNo,omitempty"`
	Remarks           *string         `json:"remarks,omitempty"`
	AttachmentPath    *string         `json:"attachmentPath,omitempty"`
	AdvanceAllocation bool            `json:"advanceAllocation"`
	TransactedAt      time.Time       `json:"transactedAt"`
	CreatedBy         int64           `json:"createdBy"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// TransactionDetail decorates a ledger row with display names for listings
// and the receipt document.
type TransactionDetail struct {
	Transaction
	ClientName string `json:"clientName"`
	OrderNo    *int64 `json:"orderNo,omitempty"`
}
