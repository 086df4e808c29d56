package transactions

import "time"

// PayRequest is the form part of POST /transaction/pay. It arrives as
// multipart form data so a proof-of-payment file can ride along.
type PayRequest struct {
	OrderID         int64           `json:"orderId" validate:"required,gt=0"`
	Amount          float64         `json:"amount" validate:"required,gt=0"`
	TransactionType TransactionType `json:"transactionType" validate:"required"`
	PaymentMethod   *string         `json:"paymentMethod,omitempty"`
	ReferenceNo     *string         `json:"referenceNo,omitempty"`
	Remarks         *string         `json:"remarks,omitempty"`
	TransactedAt    *time.Time      `json:"transactedAt,omitempty"`
}

type ListTransactionsRequest struct {
	ClientID *int64     `json:"clientId,omitempty"`
	OrderID  *int64     `json:"orderId,omitempty"`
	DateFrom *time.Time `json:"dateFrom,omitempty"`
	DateTo   *time.Time `json:"dateTo,omitempty"`
	Limit    int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int        `json:"offset" validate:"gte=0"`
}
