package advpayments

import "time"

// AdvancePayment is money received from a client before any order exists for
// it. Allocations draw the balance down against orders later.
type AdvancePayment struct {
	ID             int64     `json:"id"`
	ClientID       int64     `json:"clientId"`
	Amount         float64   `json:"amount"`
	PaymentType    string    `json:"paymentType"`
	ReferenceNo    *string   `json:"referenceNo,omitempty"`
	Remarks        *string   `json:"remarks,omitempty"`
	AttachmentPath *string   `json:"attachmentPath,omitempty"`
	ReceivedAt     time.Time `json:"receivedAt"`
	CreatedBy      int64     `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AdvancePaymentDetail decorates an advance with the client's display name.
type AdvancePaymentDetail struct {
	AdvancePayment
	ClientName string `json:"clientName"`
}

// Balance is the per-client advance position.
type Balance struct {
	ClientID  int64   `json:"clientId"`
	Received  float64 `json:"received"`
	Allocated float64 `json:"allocated"`
	Available float64 `json:"available"`
}

// Analytics summarizes a client's advance history for the analytics panel.
type Analytics struct {
	Balance
	AdvanceCount    int        `json:"advanceCount"`
	AllocationCount int        `json:"allocationCount"`
	LastAdvanceAt   *time.Time `json:"lastAdvanceAt,omitempty"`
}
