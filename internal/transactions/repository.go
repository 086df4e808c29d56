package transactions

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderdesk/orderdesk/internal/platform/db"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*TransactionDetail, error)
	List(ctx context.Context, req ListTransactionsRequest) ([]TransactionDetail, int, error)
	Create(ctx context.Context, t Transaction) (int64, error)
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

const detailQuery = `
	SELECT t.id, t.order_id, t.client_id, t.amount, t.transaction_type,
	       t.payment_method, t.reference_no, t.remarks, t.attachment_path,
	       t.advance_allocation, t.transacted_at, t.created_by, t.created_at,
	       c.name AS client_name, o.order_no
	FROM transactions t
	JOIN clients c ON c.id = t.client_id
	LEFT JOIN orders o ON o.id = t.order_id`

func (r *repository) Get(ctx context.Context, id int64) (*TransactionDetail, error) {
	rows, err := r.db.Query(ctx, detailQuery+` WHERE t.id = $1`, id)
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

func (r *repository) List(ctx context.Context, req ListTransactionsRequest) ([]TransactionDetail, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("t.client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.OrderID != nil {
		conditions = append(conditions, fmt.Sprintf("t.order_id = $%d", argPos))
		args = append(args, *req.OrderID)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("t.transacted_at >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("t.transacted_at <= $%d", argPos))
		args = append(args, *req.DateTo)
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
	countQuery := `SELECT COUNT(*) FROM transactions t` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("%s%s ORDER BY t.transacted_at DESC, t.id DESC LIMIT $%d OFFSET $%d",
		detailQuery, where, argPos, argPos+1)
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

func (r *repository) Create(ctx context.Context, t Transaction) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO transactions (
			order_id, client_id, amount, transaction_type, payment_method,
			reference_no, remarks, attachment_path, advance_allocation,
			transacted_at, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING id`,
		pgtype.Int8{Int64: derefInt(t.OrderID), Valid: t.OrderID != nil},
		t.ClientID, t.Amount, string(t.TransactionType),
		pgtype.Text{String: derefStr(t.PaymentMethod), Valid: t.PaymentMethod != nil},
		pgtype.Text{String: derefStr(t.ReferenceNo), Valid: t.ReferenceNo != nil},
		pgtype.Text{String: derefStr(t.Remarks), Valid: t.Remarks != nil},
		pgtype.Text{String: derefStr(t.AttachmentPath), Valid: t.AttachmentPath != nil},
		t.AdvanceAllocation, t.TransactedAt, t.CreatedBy,
	).Scan(&id)
	return id, err
}

func collectDetails(rows pgx.Rows) ([]TransactionDetail, error) {
	var result []TransactionDetail
	for rows.Next() {
		var d TransactionDetail
		var orderID, orderNo pgtype.Int8
		var txType string
		var paymentMethod, referenceNo, remarks, attachment pgtype.Text
		var transactedAt, createdAt pgtype.Timestamptz

		err := rows.Scan(&d.ID, &orderID, &d.ClientID, &d.Amount, &txType,
			&paymentMethod, &referenceNo, &remarks, &attachment,
			&d.AdvanceAllocation, &transactedAt, &d.CreatedBy, &createdAt,
			&d.ClientName, &orderNo)
		if err != nil {
			return nil, err
		}
		if orderID.Valid {
			val := orderID.Int64
			d.OrderID = &val
		}
		if orderNo.Valid {
			val := orderNo.Int64
			d.OrderNo = &val
		}
		d.TransactionType = TransactionType(txType)
		d.PaymentMethod = textPtr(paymentMethod)
		d.ReferenceNo = textPtr(referenceNo)
		d.Remarks = textPtr(remarks)
		d.AttachmentPath = textPtr(attachment)
		d.TransactedAt = transactedAt.Time
		d.CreatedAt = createdAt.Time
		result = append(result, d)
	}
	return result, rows.Err()
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	val := t.String
	return &val
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int64) int64 {
	if i == nil {
		return 0
	}
	return *i
}
