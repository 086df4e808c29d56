package advpayments

import "time"

// CreateRequest is the form part of POST /advanced-payment/create. It arrives
// as multipart form data so a proof-of-payment file can ride along.
type CreateRequest struct {
	ClientID    int64      `json:"clientId" validate:"required,gt=0"`
	Amount      float64    `json:"amount" validate:"required,gt=0"`
	PaymentType string     `json:"paymentType" validate:"required,oneof=cash online"`
	ReferenceNo *string    `json:"referenceNo,omitempty"`
	Remarks     *string    `json:"remarks,omitempty"`
	ReceivedAt  *time.Time `json:"receivedAt,omitempty"`
}

// AllocateRequest draws an advance balance down against an order.
type AllocateRequest struct {
	ClientID int64   `json:"clientId" validate:"required,gt=0"`
	OrderID  int64   `json:"orderId" validate:"required,gt=0"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
}
