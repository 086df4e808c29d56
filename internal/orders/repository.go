package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

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
	Get(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, req ListOrdersRequest) ([]OrderWithClient, int, error)
	Create(ctx context.Context, order Order) (int64, error)
	InsertLine(ctx context.Context, line OrderLine) (int64, error)
	DeleteLines(ctx context.Context, orderID int64) error
	InsertSubOrder(ctx context.Context, lineID int64, line OrderLine) (int64, error)
	DeleteSubOrders(ctx context.Context, orderID int64) error
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	NextOrderNo(ctx context.Context) (int64, error)
	HasTransactions(ctx context.Context, id int64) (bool, error)
	TransactionsForOrders(ctx context.Context, orderIDs []int64) (map[int64][]TransactionView, error)
	SearchByOrderNoPrefix(ctx context.Context, prefix string, limit int) ([]OrderWithClient, error)
	SearchFreeText(ctx context.Context, query string, limit int) ([]OrderWithClient, error)
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

const orderColumns = `
	o.id, o.order_no, o.client_id, o.ordered_date, o.due_date,
	o.gst_percent, o.discount_percent, o.status,
	o.subtotal, o.amount, o.total_amount, o.notes,
	o.created_by, o.closed_at, o.created_at, o.updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lines, err := r.linesForOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Products = lines
	return order, nil
}

func (r *repository) List(ctx context.Context, req ListOrdersRequest) ([]OrderWithClient, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("o.client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("o.ordered_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("o.ordered_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			whereClause += " AND " + conditions[i]
		}
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM orders o %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s, c.name AS client_name, c.alias AS client_alias
		FROM orders o
		JOIN clients c ON c.id = o.client_id
		%s
		ORDER BY o.order_no DESC
		LIMIT $%d OFFSET $%d`, orderColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result, err := collectOrdersWithClient(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *repository) Create(ctx context.Context, order Order) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO orders (
			order_no, client_id, ordered_date, due_date,
			gst_percent, discount_percent, status,
			subtotal, amount, total_amount, notes,
			created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW()
		) RETURNING id`,
		order.OrderNo, order.ClientID, order.OrderedDate,
		pgtype.Timestamptz{Time: derefTime(order.DueDate), Valid: order.DueDate != nil},
		order.GSTPercent, order.DiscountPercent, string(order.Status),
		order.Subtotal, order.Amount, order.TotalAmount,
		pgtype.Text{String: derefString(order.Notes), Valid: order.Notes != nil},
		order.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) InsertLine(ctx context.Context, line OrderLine) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO order_lines (
			order_id, product_id, quantity, unit, rate_price,
			discount_percent, cash_rate, amount, line_order,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id`,
		line.OrderID, line.ProductID, line.Quantity, string(line.Unit), line.RatePrice,
		pgtype.Float8{Float64: derefFloat(line.DiscountPercent), Valid: line.DiscountPercent != nil},
		pgtype.Float8{Float64: derefFloat(line.CashRate), Valid: line.CashRate != nil},
		line.Amount, line.LineOrder,
	).Scan(&id)
	return id, err
}

func (r *repository) DeleteLines(ctx context.Context, orderID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, orderID)
	return err
}

func (r *repository) InsertSubOrder(ctx context.Context, lineID int64, line OrderLine) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO sub_orders (
			order_id, order_line_id, product_id, quantity, unit, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, 'PENDING', NOW(), NOW())
		RETURNING id`,
		line.OrderID, lineID, line.ProductID, line.Quantity, string(line.Unit),
	).Scan(&id)
	return id, err
}

func (r *repository) DeleteSubOrders(ctx context.Context, orderID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sub_orders WHERE order_id = $1`, orderID)
	return err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE orders SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{
		"ordered_date", "due_date", "gst_percent", "discount_percent",
		"status", "subtotal", "amount", "total_amount", "notes", "closed_at",
	} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, id); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NextOrderNo allocates the next sequential order number. Callers must run
// this inside the same transaction as the insert.
func (r *repository) NextOrderNo(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(order_no), 0) + 1 FROM orders`).Scan(&next)
	return next, err
}

func (r *repository) HasTransactions(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transactions WHERE order_id = $1)`, id).Scan(&exists)
	return exists, err
}

// TransactionsForOrders loads the payments attached to the given orders in
// one query, keyed by order id.
func (r *repository) TransactionsForOrders(ctx context.Context, orderIDs []int64) (map[int64][]TransactionView, error) {
	result := make(map[int64][]TransactionView, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, client_id, amount, transaction_type, transacted_at, advance_allocation
		FROM transactions
		WHERE order_id = ANY($1)
		ORDER BY transacted_at`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t TransactionView
		var orderID pgtype.Int8
		var transactedAt pgtype.Timestamptz
		if err := rows.Scan(&t.ID, &orderID, &t.ClientID, &t.Amount, &t.TransactionType, &transactedAt, &t.AdvanceAllocation); err != nil {
			return nil, err
		}
		t.OrderID = orderID.Int64
		t.Date = transactedAt.Time
		result[t.OrderID] = append(result[t.OrderID], t)
	}
	return result, rows.Err()
}

// SearchByOrderNoPrefix returns candidate orders whose number starts with the
// given digits. Ranking happens in the service via the finance package.
func (r *repository) SearchByOrderNoPrefix(ctx context.Context, prefix string, limit int) ([]OrderWithClient, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`, c.name AS client_name, c.alias AS client_alias
		FROM orders o
		JOIN clients c ON c.id = o.client_id
		WHERE o.order_no::text LIKE $1 || '%'
		ORDER BY o.order_no
		LIMIT $2`, prefix, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrdersWithClient(rows)
}

// SearchFreeText matches client name/alias and order notes.
func (r *repository) SearchFreeText(ctx context.Context, query string, limit int) ([]OrderWithClient, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`, c.name AS client_name, c.alias AS client_alias
		FROM orders o
		JOIN clients c ON c.id = o.client_id
		WHERE c.name ILIKE $1 OR c.alias ILIKE $1 OR o.notes ILIKE $1
		ORDER BY o.order_no DESC
		LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrdersWithClient(rows)
}

func (r *repository) linesForOrder(ctx context.Context, orderID int64) ([]OrderLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit, rate_price,
		       discount_percent, cash_rate, amount, line_order, created_at, updated_at
		FROM order_lines
		WHERE order_id = $1
		ORDER BY line_order`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []OrderLine
	for rows.Next() {
		var line OrderLine
		var unit string
		var discount, cashRate pgtype.Float8
		var createdAt, updatedAt pgtype.Timestamptz
		err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.Quantity, &unit,
			&line.RatePrice, &discount, &cashRate, &line.Amount, &line.LineOrder, &createdAt, &updatedAt)
		if err != nil {
			return nil, err
		}
		line.Unit = finance.Unit(unit)
		if discount.Valid {
			val := discount.Float64
			line.DiscountPercent = &val
		}
		if cashRate.Valid {
			val := cashRate.Float64
			line.CashRate = &val
		}
		line.CreatedAt = createdAt.Time
		line.UpdatedAt = updatedAt.Time
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var status string
	var dueDate, closedAt, createdAt, updatedAt pgtype.Timestamptz
	var orderedDate pgtype.Timestamptz
	var notes pgtype.Text

	err := row.Scan(
		&o.ID, &o.OrderNo, &o.ClientID, &orderedDate, &dueDate,
		&o.GSTPercent, &o.DiscountPercent, &status,
		&o.Subtotal, &o.Amount, &o.TotalAmount, &notes,
		&o.CreatedBy, &closedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.OrderedDate = orderedDate.Time
	if dueDate.Valid {
		val := dueDate.Time
		o.DueDate = &val
	}
	if closedAt.Valid {
		val := closedAt.Time
		o.ClosedAt = &val
	}
	if notes.Valid {
		val := notes.String
		o.Notes = &val
	}
	o.Status = finance.OrderStatus(status)
	o.CreatedAt = createdAt.Time
	o.UpdatedAt = updatedAt.Time
	return &o, nil
}

func collectOrdersWithClient(rows pgx.Rows) ([]OrderWithClient, error) {
	var result []OrderWithClient
	for rows.Next() {
		var o OrderWithClient
		var status string
		var dueDate, closedAt, createdAt, updatedAt, orderedDate pgtype.Timestamptz
		var notes, clientAlias pgtype.Text

		err := rows.Scan(
			&o.ID, &o.OrderNo, &o.ClientID, &orderedDate, &dueDate,
			&o.GSTPercent, &o.DiscountPercent, &status,
			&o.Subtotal, &o.Amount, &o.TotalAmount, &notes,
			&o.CreatedBy, &closedAt, &createdAt, &updatedAt,
			&o.ClientName, &clientAlias,
		)
		if err != nil {
			return nil, err
		}
		o.OrderedDate = orderedDate.Time
		if dueDate.Valid {
			val := dueDate.Time
			o.DueDate = &val
		}
		if closedAt.Valid {
			val := closedAt.Time
			o.ClosedAt = &val
		}
		if notes.Valid {
			val := notes.String
			o.Notes = &val
		}
		if clientAlias.Valid {
			val := clientAlias.String
			o.ClientAlias = &val
		}
		o.Status = finance.OrderStatus(status)
		o.CreatedAt = createdAt.Time
		o.UpdatedAt = updatedAt.Time
		result = append(result, o)
	}
	return result, rows.Err()
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
