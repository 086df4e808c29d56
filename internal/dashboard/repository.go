package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderdesk/orderdesk/internal/finance"
)

type Repository interface {
	Totals(ctx context.Context) (finance.DashboardTotals, error)
	AllTransactions(ctx context.Context) ([]finance.Transaction, error)
	DebtInputs(ctx context.Context) ([]finance.Client, []finance.Order, []finance.Transaction, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

// Totals pre-aggregates the countable dashboard figures in one round trip.
// Revenue sums the discounted document totals of every order.
func (r *repository) Totals(ctx context.Context) (finance.DashboardTotals, error) {
	var t finance.DashboardTotals
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM orders WHERE status = 'PENDING'),
			(SELECT COUNT(*) FROM orders WHERE status = 'COMPLETED'),
			(SELECT COUNT(*) FROM orders WHERE status IN ('DISPATCHED', 'PARTIALLY_DISPATCHED')),
			(SELECT COUNT(*) FROM clients),
			(SELECT COUNT(*) FROM products),
			COALESCE((SELECT SUM(total_amount) FROM orders), 0)`,
	).Scan(&t.TotalOrders, &t.PendingOrders, &t.CompletedOrders,
		&t.DispatchedOrders, &t.TotalClients, &t.TotalProducts, &t.TotalRevenue)
	return t, err
}

// AllTransactions streams the payment ledger for outstanding recomputation.
// Allocation entries are excluded; that money was already counted when the
// advance arrived.
func (r *repository) AllTransactions(ctx context.Context) ([]finance.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, COALESCE(order_id, 0), client_id, amount
		FROM transactions
		WHERE NOT advance_allocation`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []finance.Transaction
	for rows.Next() {
		var t finance.Transaction
		var amount float64
		if err := rows.Scan(&t.ID, &t.OrderID, &t.ClientID, &amount); err != nil {
			return nil, err
		}
		t.Amount = amount
		result = append(result, t)
	}
	return result, rows.Err()
}

// DebtInputs fetches the three collections the debt aggregation runs over.
func (r *repository) DebtInputs(ctx context.Context) ([]finance.Client, []finance.Order, []finance.Transaction, error) {
	clientRows, err := r.db.Query(ctx, `SELECT id, name FROM clients ORDER BY id`)
	if err != nil {
		return nil, nil, nil, err
	}
	defer clientRows.Close()

	var clients []finance.Client
	for clientRows.Next() {
		var c finance.Client
		if err := clientRows.Scan(&c.ID, &c.Name); err != nil {
			return nil, nil, nil, err
		}
		clients = append(clients, c)
	}
	if err := clientRows.Err(); err != nil {
		return nil, nil, nil, err
	}

	orderRows, err := r.db.Query(ctx, `
		SELECT id, order_no, client_id, status, amount, discount_percent
		FROM orders`)
	if err != nil {
		return nil, nil, nil, err
	}
	defer orderRows.Close()

	var orders []finance.Order
	for orderRows.Next() {
		var o finance.Order
		var status string
		if err := orderRows.Scan(&o.ID, &o.OrderNo, &o.ClientID, &status, &o.Amount, &o.DiscountPercent); err != nil {
			return nil, nil, nil, err
		}
		o.Status = finance.OrderStatus(status)
		orders = append(orders, o)
	}
	if err := orderRows.Err(); err != nil {
		return nil, nil, nil, err
	}

	txnRows, err := r.db.Query(ctx, `
		SELECT id, COALESCE(order_id, 0), client_id, amount, advance_allocation
		FROM transactions`)
	if err != nil {
		return nil, nil, nil, err
	}
	defer txnRows.Close()

	var txns []finance.Transaction
	for txnRows.Next() {
		var t finance.Transaction
		var amount float64
		if err := txnRows.Scan(&t.ID, &t.OrderID, &t.ClientID, &amount, &t.AdvanceAllocation); err != nil {
			return nil, nil, nil, err
		}
		t.Amount = amount
		txns = append(txns, t)
	}
	return clients, orders, txns, txnRows.Err()
}
