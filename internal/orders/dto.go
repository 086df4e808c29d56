package orders

import (
	"time"

	"github.com/orderdesk/orderdesk/internal/finance"
)

type CreateOrderLineReq struct {
	ProductID       int64        `json:"productId" validate:"required,gt=0"`
	Quantity        float64      `json:"quantity" validate:"gte=0"`
	Unit            finance.Unit `json:"unit" validate:"required"`
	RatePrice       float64      `json:"ratePrice" validate:"gte=0"`
	DiscountPercent *float64     `json:"discountPercent,omitempty" validate:"omitempty,gte=0,lte=100"`
	CashRate        *float64     `json:"cashRate,omitempty" validate:"omitempty,gte=0"`
	LineOrder       int          `json:"lineOrder" validate:"gte=0"`
}

type CreateOrderRequest struct {
	ClientID        int64                `json:"clientId" validate:"required,gt=0"`
	OrderedDate     time.Time            `json:"orderedDate" validate:"required"`
	DueDate         *time.Time           `json:"dueDate,omitempty"`
	GSTPercent      float64              `json:"gstPercent" validate:"gte=0,lte=100"`
	DiscountPercent float64              `json:"discountPercent" validate:"gte=0,lte=100"`
	Notes           *string              `json:"notes,omitempty"`
	Products        []CreateOrderLineReq `json:"products" validate:"required,min=1,dive"`
}

type UpdateOrderRequest struct {
	OrderedDate     *time.Time            `json:"orderedDate,omitempty"`
	DueDate         *time.Time            `json:"dueDate,omitempty"`
	GSTPercent      *float64              `json:"gstPercent,omitempty" validate:"omitempty,gte=0,lte=100"`
	DiscountPercent *float64              `json:"discountPercent,omitempty" validate:"omitempty,gte=0,lte=100"`
	Status          *finance.OrderStatus  `json:"status,omitempty"`
	Notes           *string               `json:"notes,omitempty"`
	Products        *[]CreateOrderLineReq `json:"products,omitempty" validate:"omitempty,min=1,dive"`
}

type ListOrdersRequest struct {
	ClientID *int64               `json:"clientId,omitempty"`
	Status   *finance.OrderStatus `json:"status,omitempty"`
	DateFrom *time.Time           `json:"dateFrom,omitempty"`
	DateTo   *time.Time           `json:"dateTo,omitempty"`
	Limit    int                  `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int                  `json:"offset" validate:"gte=0"`
}
