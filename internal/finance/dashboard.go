package finance

import "math"

// DashboardTotals is the pre-aggregated slice of dashboard figures fetched
// from storage in one query.
type DashboardTotals struct {
	TotalOrders      int     `json:"totalOrders"`
	PendingOrders    int     `json:"pendingOrders"`
	CompletedOrders  int     `json:"completedOrders"`
	DispatchedOrders int     `json:"dispatchedOrders"`
	TotalClients     int     `json:"totalClients"`
	TotalProducts    int     `json:"totalProducts"`
	TotalRevenue     float64 `json:"totalRevenue"`
}

// DashboardStats is the dashboard payload served to consumers.
type DashboardStats struct {
	DashboardTotals
	OutstandingPayments float64 `json:"outstandingPayments"`
}

// ComputeDashboardStats combines pre-aggregated totals with locally recomputed
// outstanding payments. Outstanding figures are never negative anywhere in the
// system, so the difference is floored at zero.
func ComputeDashboardStats(pre DashboardTotals, txns []Transaction) DashboardStats {
	var paid float64
	for _, t := range txns {
		paid += Amount(t.Amount)
	}
	return DashboardStats{
		DashboardTotals:     pre,
		OutstandingPayments: math.Max(0, pre.TotalRevenue-paid),
	}
}
