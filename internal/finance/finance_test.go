package finance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func TestAmountCoercion(t *testing.T) {
	assert.Equal(t, 12.5, Amount(12.5))
	assert.Equal(t, 7.0, Amount(7))
	assert.Equal(t, 7.0, Amount(int64(7)))
	assert.Equal(t, 3.25, Amount("3.25"))
	assert.Equal(t, 0.0, Amount("bad"))
	assert.Equal(t, 0.0, Amount(nil))
	assert.Equal(t, 0.0, Amount(map[string]any{"nested": true}))
	assert.Equal(t, 99.0, Amount(json.Number("99")))
	assert.Equal(t, 0.0, Amount(json.Number("not-a-number")))
}

func TestComputeLineAmount(t *testing.T) {
	item := LineItem{Quantity: 4, RatePrice: 25}
	assert.Equal(t, 100.0, ComputeLineAmount(item))

	item.DiscountPercent = floatPtr(10)
	assert.Equal(t, 90.0, ComputeLineAmount(item))
}

func TestDeriveOrderFinancialsExplicitTotalWins(t *testing.T) {
	order := Order{
		TotalAmount: floatPtr(500),
		Products: []LineItem{
			{Amount: 100.0},
			{Amount: 100.0},
		},
	}
	got := DeriveOrderFinancials(order, nil)
	assert.Equal(t, 500.0, got.Total, "explicit totalAmount must win over line items")
	assert.Equal(t, 0.0, got.Paid)
	assert.Equal(t, 500.0, got.Remaining)
}

func TestDeriveOrderFinancialsLineItemFallback(t *testing.T) {
	order := Order{
		Products: []LineItem{
			{Amount: 100.0},
			{Amount: "bad"},
			{Amount: 50.0},
		},
	}
	got := DeriveOrderFinancials(order, nil)
	assert.Equal(t, 150.0, got.Total, "non-numeric amounts contribute zero")
}

func TestDeriveOrderFinancialsRemainingNeverNegative(t *testing.T) {
	order := Order{TotalAmount: floatPtr(100)}
	txns := []Transaction{{Amount: 80.0}, {Amount: 50.0}}
	got := DeriveOrderFinancials(order, txns)
	assert.Equal(t, 130.0, got.Paid)
	assert.Equal(t, 0.0, got.Remaining, "over-payment must floor remaining at zero")
}

func TestDeriveOrderFinancialsEmptyInputs(t *testing.T) {
	got := DeriveOrderFinancials(Order{}, nil)
	assert.Equal(t, OrderFinancials{}, got)

	order := Order{TotalAmount: floatPtr(75)}
	got = DeriveOrderFinancials(order, nil)
	assert.Equal(t, 75.0, got.Remaining)
}

func TestDeriveOrderFinancialsIdempotent(t *testing.T) {
	order := Order{
		Products: []LineItem{{Amount: 40.0}, {Amount: 60.0}},
	}
	txns := []Transaction{{Amount: 30.0}}
	first := DeriveOrderFinancials(order, txns)
	second := DeriveOrderFinancials(order, txns)
	assert.Equal(t, first, second)
}

func TestAggregateClientDebtsFiltersAndSorts(t *testing.T) {
	clients := []Client{
		{ID: 1, Name: "Small"},
		{ID: 2, Name: "Large"},
		{ID: 3, Name: "Settled"},
		{ID: 4, Name: "Tiny"},
	}
	orders := []Order{
		{ID: 10, ClientID: 1, Amount: 100},
		{ID: 11, ClientID: 2, Amount: 200},
		{ID: 12, ClientID: 3, Amount: 300},
		{ID: 13, ClientID: 4, Amount: 10},
	}
	txns := []Transaction{
		{ClientID: 1, Amount: 50.0},
		{ClientID: 3, Amount: 300.0},
	}

	debts := AggregateClientDebts(clients, orders, txns)
	require.Len(t, debts, 3, "fully paid client must be excluded")

	assert.Equal(t, int64(2), debts[0].ClientID)
	assert.Equal(t, 200.0, debts[0].OutstandingAmount)
	assert.Equal(t, int64(1), debts[1].ClientID)
	assert.Equal(t, 50.0, debts[1].OutstandingAmount)
	assert.Equal(t, int64(4), debts[2].ClientID)
	assert.Equal(t, 10.0, debts[2].OutstandingAmount)
}

func TestAggregateClientDebtsAppliesDocumentDiscount(t *testing.T) {
	clients := []Client{{ID: 1}}
	orders := []Order{{ID: 10, ClientID: 1, Amount: 200, DiscountPercent: 25}}

	debts := AggregateClientDebts(clients, orders, nil)
	require.Len(t, debts, 1)
	assert.Equal(t, 150.0, debts[0].TotalOrderAmount)
}

func TestAggregateClientDebtsIgnoresAdvanceAllocations(t *testing.T) {
	clients := []Client{{ID: 1}}
	orders := []Order{{ID: 10, ClientID: 1, Amount: 100}}
	txns := []Transaction{
		{ClientID: 1, Amount: 40.0},
		{ClientID: 1, Amount: 60.0, AdvanceAllocation: true},
	}

	debts := AggregateClientDebts(clients, orders, txns)
	require.Len(t, debts, 1)
	assert.Equal(t, 40.0, debts[0].TotalPaidAmount)
	assert.Equal(t, 1, debts[0].TransactionCount)
	assert.Equal(t, 60.0, debts[0].OutstandingAmount)
}

func TestClientScenarioTwoOrders(t *testing.T) {
	order1 := Order{ID: 1, ClientID: 9, TotalAmount: floatPtr(1000), Amount: 1000}
	order2 := Order{ID: 2, ClientID: 9, TotalAmount: floatPtr(500), Amount: 500}
	txnsOrder1 := []Transaction{{OrderID: 1, ClientID: 9, Amount: 400.0}}
	txnsOrder2 := []Transaction{{OrderID: 2, ClientID: 9, Amount: 500.0}}

	fin1 := DeriveOrderFinancials(order1, txnsOrder1)
	fin2 := DeriveOrderFinancials(order2, txnsOrder2)
	assert.Equal(t, 600.0, fin1.Remaining)
	assert.Equal(t, 0.0, fin2.Remaining)

	debts := AggregateClientDebts(
		[]Client{{ID: 9}},
		[]Order{order1, order2},
		append(txnsOrder1, txnsOrder2...),
	)
	require.Len(t, debts, 1)
	assert.Equal(t, 600.0, debts[0].OutstandingAmount)
}

func TestComputeDashboardStatsFloorsOutstanding(t *testing.T) {
	pre := DashboardTotals{TotalRevenue: 1000}
	stats := ComputeDashboardStats(pre, []Transaction{{Amount: 400.0}})
	assert.Equal(t, 600.0, stats.OutstandingPayments)

	stats = ComputeDashboardStats(pre, []Transaction{{Amount: 1500.0}})
	assert.Equal(t, 0.0, stats.OutstandingPayments, "outstanding must never go negative")
}
