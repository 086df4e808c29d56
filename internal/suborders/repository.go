package suborders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderdesk/orderdesk/internal/finance"
	"github.com/orderdesk/orderdesk/internal/platform/db"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*SubOrder, error)
	GetDetail(ctx context.Context, id int64) (*SubOrderDetail, error)
	List(ctx context.Context, req ListSubOrdersRequest) ([]SubOrderDetail, int, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	DispatchCounts(ctx context.Context, orderID int64) (total, moved int, err error)
	SetOrderStatus(ctx context.Context, orderID int64, status finance.OrderStatus) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) Get(ctx context.Context, id int64) (*SubOrder, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, order_id, order_line_id, product_id, quantity, unit, status,
		       dispatched_at, completed_at, created_at, updated_at
		FROM sub_orders
		WHERE id = $1`, id)

	var so SubOrder
	var unit, status string
	var dispatchedAt, completedAt, createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(&so.ID, &so.OrderID, &so.OrderLineID, &so.ProductID, &so.Quantity,
		&unit, &status, &dispatchedAt, &completedAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	so.Unit = finance.Unit(unit)
	so.Status = Status(status)
	if dispatchedAt.Valid {
		val := dispatchedAt.Time
		so.DispatchedAt = &val
	}
	if completedAt.Valid {
		val := completedAt.Time
		so.CompletedAt = &val
	}
	so.CreatedAt = createdAt.Time
	so.UpdatedAt = updatedAt.Time
	return &so, nil
}

const detailQuery = `
	SELECT so.id, so.order_id, so.order_line_id, so.product_id, so.quantity,
	       so.unit, so.status, so.dispatched_at, so.completed_at,
	       so.created_at, so.updated_at,
	       o.order_no, o.client_id, c.name AS client_name,
	       p.name AS product_name, ol.rate_price, ol.amount
	FROM sub_orders so
	JOIN orders o ON o.id = so.order_id
	JOIN clients c ON c.id = o.client_id
	JOIN order_lines ol ON ol.id = so.order_line_id
	JOIN products p ON p.id = so.product_id`

func (r *repository) GetDetail(ctx context.Context, id int64) (*SubOrderDetail, error) {
	rows, err := r.db.Query(ctx, detailQuery+` WHERE so.id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details, err := collectDetails(rows)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, ErrNotFound
	}
	return &details[0], nil
}

func (r *repository) List(ctx context.Context, req ListSubOrdersRequest) ([]SubOrderDetail, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.OrderID != nil {
		conditions = append(conditions, fmt.Sprintf("so.order_id = $%d", argPos))
		args = append(args, *req.OrderID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("so.status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			where += " AND " + conditions[i]
		}
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM sub_orders so` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("%s%s ORDER BY so.id DESC LIMIT $%d OFFSET $%d", detailQuery, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	details, err := collectDetails(rows)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// UpdateStatus stamps dispatched_at/completed_at alongside the transition so
// the invoice can show when each fragment moved.
func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	query := `UPDATE sub_orders SET status = $1, updated_at = NOW()`
	switch status {
	case StatusDispatched:
		query += `, dispatched_at = NOW()`
	case StatusCompleted:
		query += `, completed_at = NOW()`
	}
	query += ` WHERE id = $2`

	tag, err := r.db.Exec(ctx, query, string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DispatchCounts reports how many of an order's sub-orders exist and how many
// have moved past PENDING. The parent order's dispatch state is derived from
// these two numbers.
func (r *repository) DispatchCounts(ctx context.Context, orderID int64) (int, int, error) {
	var total, moved int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status <> 'PENDING')
		FROM sub_orders
		WHERE order_id = $1`, orderID).Scan(&total, &moved)
	return total, moved, err
}

// SetOrderStatus adjusts the parent order's dispatch state. Terminal orders
// are left untouched.
func (r *repository) SetOrderStatus(ctx context.Context, orderID int64, status finance.OrderStatus) error {
	_, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status IN ('PENDING', 'PARTIALLY_DISPATCHED', 'DISPATCHED')`,
		string(status), orderID)
	return err
}

func collectDetails(rows pgx.Rows) ([]SubOrderDetail, error) {
	var result []SubOrderDetail
	for rows.Next() {
		var d SubOrderDetail
		var unit, status string
		var dispatchedAt, completedAt, createdAt, updatedAt pgtype.Timestamptz
		err := rows.Scan(&d.ID, &d.OrderID, &d.OrderLineID, &d.ProductID, &d.Quantity,
			&unit, &status, &dispatchedAt, &completedAt, &createdAt, &updatedAt,
			&d.OrderNo, &d.ClientID, &d.ClientName, &d.ProductName, &d.RatePrice, &d.Amount)
		if err != nil {
			return nil, err
		}
		d.Unit = finance.Unit(unit)
		d.Status = Status(status)
		if dispatchedAt.Valid {
			val := dispatchedAt.Time
			d.DispatchedAt = &val
		}
		if completedAt.Valid {
			val := completedAt.Time
			d.CompletedAt = &val
		}
		d.CreatedAt = createdAt.Time
		d.UpdatedAt = updatedAt.Time
		result = append(result, d)
	}
	return result, rows.Err()
}
