package orders

import (
	"time"

	"github.com/orderdesk/orderdesk/internal/finance"
)

// Order is a client's request for products at agreed rates. Amount is the
// document-level figure (line subtotal plus GST); TotalAmount is Amount after
// the document discount and is what payments are settled against.
type Order struct {
	ID              int64               `json:"id"`
	OrderNo         int64               `json:"orderNo"`
	ClientID        int64               `json:"clientId"`
	OrderedDate     time.Time           `json:"orderedDate"`
	DueDate         *time.Time          `json:"dueDate,omitempty"`
	GSTPercent      float64             `json:"gstPercent"`
	DiscountPercent float64             `json:"discountPercent"`
	Status          finance.OrderStatus `json:"status"`
	Subtotal        float64             `json:"subtotal"`
	Amount          float64             `json:"amount"`
	TotalAmount     float64             `json:"totalAmount"`
	Notes           *string             `json:"notes,omitempty"`
	CreatedBy       int64               `json:"createdBy"`
	ClosedAt        *time.Time          `json:"closedAt,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	Products        []OrderLine         `json:"products,omitempty"`
}

// OrderLine is one priced line of an order.
type OrderLine struct {
	ID              int64        `json:"id"`
	OrderID         int64        `json:"orderId"`
	ProductID       int64        `json:"productId"`
	Quantity        float64      `json:"quantity"`
	Unit            finance.Unit `json:"unit"`
	RatePrice       float64      `json:"ratePrice"`
	DiscountPercent *float64     `json:"discountPercent,omitempty"`
	CashRate        *float64     `json:"cashRate,omitempty"`
	Amount          float64      `json:"amount"`
	LineOrder       int          `json:"lineOrder"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// TransactionView is the slice of a payment embedded in order listings.
type TransactionView struct {
	ID                int64     `json:"id"`
	OrderID           int64     `json:"orderId"`
	ClientID          int64     `json:"clientId"`
	Amount            float64   `json:"amount"`
	TransactionType   string    `json:"transactionType"`
	Date              time.Time `json:"date"`
	AdvanceAllocation bool      `json:"advanceAllocation"`
}

// OrderWithTransactions embeds an order's payments and derived financials.
type OrderWithTransactions struct {
	Order
	Transactions []TransactionView       `json:"transactions"`
	Financials   finance.OrderFinancials `json:"financials"`
}

// OrderWithClient decorates a listing row with the client's display name.
type OrderWithClient struct {
	Order
	ClientName  string  `json:"clientName"`
	ClientAlias *string `json:"clientAlias,omitempty"`
}

// Terminal reports whether status refuses further payments.
func Terminal(status finance.OrderStatus) bool {
	return status == finance.OrderStatusClosed ||
		status == finance.OrderStatusCompleted ||
		status == finance.OrderStatusCancelled
}

// ValidStatus reports membership in the order status enum.
func ValidStatus(status finance.OrderStatus) bool {
	switch status {
	case finance.OrderStatusPending, finance.OrderStatusPartiallyDispatched,
		finance.OrderStatusDispatched, finance.OrderStatusCompleted,
		finance.OrderStatusClosed, finance.OrderStatusCancelled:
		return true
	}
	return false
}

// FinanceOrder converts an order to the finance package's view of it.
func (o Order) FinanceOrder() finance.Order {
	total := o.TotalAmount
	items := make([]finance.LineItem, 0, len(o.Products))
	for _, line := range o.Products {
		items = append(items, finance.LineItem{
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			Unit:            line.Unit,
			RatePrice:       line.RatePrice,
			DiscountPercent: line.DiscountPercent,
			CashRate:        line.CashRate,
			Amount:          line.Amount,
		})
	}
	return finance.Order{
		ID:              o.ID,
		OrderNo:         o.OrderNo,
		ClientID:        o.ClientID,
		Status:          o.Status,
		TotalAmount:     &total,
		Amount:          o.Amount,
		DiscountPercent: o.DiscountPercent,
		Products:        items,
	}
}
