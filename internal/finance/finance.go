// Package finance implements the pure derivation logic shared by the order,
// transaction, debt and dashboard views: per-order totals and remainders,
// per-client outstanding debt, dashboard aggregates and order-number search
// ranking. Everything in this package is side-effect free and operates on
// already-materialized records; malformed numeric fields coerce to zero so a
// single corrupt record can never take down an aggregate view.
package finance

import (
	"encoding/json"
	"math"
	"strconv"
)

// Unit enumerates the units an order line can be priced in.
type Unit string

const (
	UnitNos         Unit = "NOS"
	UnitSquareMeter Unit = "SQUARE_METER"
	UnitSquareFeet  Unit = "SQUARE_FEET"
	UnitSet         Unit = "SET"
)

// ValidUnit reports whether u is one of the supported pricing units.
func ValidUnit(u Unit) bool {
	switch u {
	case UnitNos, UnitSquareMeter, UnitSquareFeet, UnitSet:
		return true
	}
	return false
}

// OrderStatus enumerates order lifecycle states.
type OrderStatus string

const (
	OrderStatusPending             OrderStatus = "PENDING"
	OrderStatusPartiallyDispatched OrderStatus = "PARTIALLY_DISPATCHED"
	OrderStatusDispatched          OrderStatus = "DISPATCHED"
	OrderStatusCompleted           OrderStatus = "COMPLETED"
	OrderStatusClosed              OrderStatus = "CLOSED"
	OrderStatusCancelled           OrderStatus = "CANCELLED"
)

// LineItem is one priced line of an order as it appears in a fetched record.
// Amount carries the raw value from the source document and may be missing or
// non-numeric.
type LineItem struct {
	ProductID       int64
	Quantity        float64
	Unit            Unit
	RatePrice       float64
	DiscountPercent *float64
	CashRate        *float64
	Amount          any
}

// Order is the slice of an order record the derivation functions care about.
// TotalAmount is a pointer because its presence changes how the total is
// computed; Amount and DiscountPercent are the document-level figures used by
// the debt aggregation.
type Order struct {
	ID              int64
	OrderNo         int64
	ClientID        int64
	Status          OrderStatus
	TotalAmount     *float64
	Amount          float64
	DiscountPercent float64
	Products        []LineItem
}

// Transaction is a payment record as it appears in a fetched record. Amount
// carries the raw value and may be non-numeric. AdvanceAllocation marks
// transactions that merely allocate a previously recorded advance payment.
type Transaction struct {
	ID                int64
	OrderID           int64
	ClientID          int64
	Amount            any
	AdvanceAllocation bool
}

// Client identifies a client in debt aggregation output.
type Client struct {
	ID   int64
	Name string
}

// OrderFinancials is the derived financial state of a single order.
type OrderFinancials struct {
	Total     float64 `json:"total"`
	Paid      float64 `json:"paid"`
	Remaining float64 `json:"remaining"`
}

// Amount coerces a raw value to float64. Missing or non-numeric values yield
// zero; this function never panics.
func Amount(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

// ComputeLineAmount prices a line item from quantity, rate and the optional
// discount percent.
func ComputeLineAmount(item LineItem) float64 {
	amount := item.Quantity * item.RatePrice
	if item.DiscountPercent != nil {
		amount *= 1 - *item.DiscountPercent/100
	}
	return amount
}

// DeriveOrderFinancials computes the derived total, paid and remaining figures
// for one order. txns must be the transactions attached to this order. The
// explicit TotalAmount wins over the line-item sum when both are present, even
// if they disagree. Remaining is floored at zero regardless of over-payment.
// Orders in a terminal state are not special-cased here; refusing new payments
// against them is a service-layer rule.
func DeriveOrderFinancials(order Order, txns []Transaction) OrderFinancials {
	var total float64
	if order.TotalAmount != nil {
		total = *order.TotalAmount
	} else {
		for _, item := range order.Products {
			total += Amount(item.Amount)
		}
	}

	var paid float64
	for _, t := range txns {
		paid += Amount(t.Amount)
	}

	return OrderFinancials{
		Total:     total,
		Paid:      paid,
		Remaining: math.Max(0, total-paid),
	}
}
