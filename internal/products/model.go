package products

import (
	"time"

	"github.com/orderdesk/orderdesk/internal/finance"
)

// Product is a sellable item with a default unit and rate. Order lines may
// override the rate per order.
type Product struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	Unit        finance.Unit `json:"unit"`
	RatePrice   float64      `json:"ratePrice"`
	CashRate    *float64     `json:"cashRate,omitempty"`
	CreatedBy   int64        `json:"createdBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
