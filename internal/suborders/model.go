package suborders

import (
	"time"

	"github.com/orderdesk/orderdesk/internal/finance"
)

// Status enumerates the dispatch lifecycle of a sub-order.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusDispatched Status = "DISPATCHED"
	StatusCompleted  Status = "COMPLETED"
)

// ValidStatus reports membership in the sub-order status enum.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusDispatched, StatusCompleted:
		return true
	}
	return false
}

// NextStatus returns the single allowed forward transition. COMPLETED has no
// successor; ok is false at the end of the lifecycle.
func NextStatus(s Status) (Status, bool) {
	switch s {
	case StatusPending:
		return StatusDispatched, true
	case StatusDispatched:
		return StatusCompleted, true
	}
	return "", false
}

// SubOrder is a dispatch-tracked fragment of an order line. A line may be
// split across several sub-orders when it ships in parts.
type SubOrder struct {
	ID           int64        `json:"id"`
	OrderID      int64        `json:"orderId"`
	OrderLineID  int64        `json:"orderLineId"`
	ProductID    int64        `json:"productId"`
	Quantity     float64      `json:"quantity"`
	Unit         finance.Unit `json:"unit"`
	Status       Status       `json:"status"`
	DispatchedAt *time.Time   `json:"dispatchedAt,omitempty"`
	CompletedAt  *time.Time   `json:"completedAt,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// SubOrderDetail decorates a sub-order with display fields for listings and
// the invoice document.
type SubOrderDetail struct {
	SubOrder
	OrderNo     int64   `json:"orderNo"`
	ClientID    int64   `json:"clientId"`
	ClientName  string  `json:"clientName"`
	ProductName string  `json:"productName"`
	RatePrice   float64 `json:"ratePrice"`
	Amount      float64 `json:"amount"`
}
