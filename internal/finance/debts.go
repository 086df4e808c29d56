package finance

import "sort"

// ClientDebt summarises one client's outstanding position.
type ClientDebt struct {
	ClientID          int64   `json:"clientId"`
	ClientName        string  `json:"clientName"`
	TotalOrderAmount  float64 `json:"totalOrderAmount"`
	TotalPaidAmount   float64 `json:"totalPaidAmount"`
	OutstandingAmount float64 `json:"outstandingAmount"`
	OrderCount        int     `json:"orderCount"`
	TransactionCount  int     `json:"transactionCount"`
}

// AggregateClientDebts computes per-client outstanding debt over three fetched
// collections. Per order the document-level discount is applied to the
// document amount; transactions flagged as advance allocations do not count as
// payments. Clients with no positive outstanding balance are omitted and the
// result is sorted descending by outstanding amount with a stable order for
// ties.
func AggregateClientDebts(clients []Client, orders []Order, txns []Transaction) []ClientDebt {
	ordersByClient := make(map[int64][]Order, len(clients))
	for _, o := range orders {
		ordersByClient[o.ClientID] = append(ordersByClient[o.ClientID], o)
	}
	txnsByClient := make(map[int64][]Transaction, len(clients))
	for _, t := range txns {
		txnsByClient[t.ClientID] = append(txnsByClient[t.ClientID], t)
	}

	debts := make([]ClientDebt, 0, len(clients))
	for _, c := range clients {
		debt := ClientDebt{ClientID: c.ID, ClientName: c.Name}
		for _, o := range ordersByClient[c.ID] {
			debt.TotalOrderAmount += o.Amount - o.Amount*o.DiscountPercent/100
			debt.OrderCount++
		}
		for _, t := range txnsByClient[c.ID] {
			if t.AdvanceAllocation {
				continue
			}
			debt.TotalPaidAmount += Amount(t.Amount)
			debt.TransactionCount++
		}
		debt.OutstandingAmount = debt.TotalOrderAmount - debt.TotalPaidAmount
		if debt.OutstandingAmount > 0 {
			debts = append(debts, debt)
		}
	}

	sort.SliceStable(debts, func(i, j int) bool {
		return debts[i].OutstandingAmount > debts[j].OutstandingAmount
	})
	return debts
}
