package advpayments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderdesk/orderdesk/internal/platform/db"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*AdvancePaymentDetail, error)
	ListForClient(ctx context.Context, clientID int64) ([]AdvancePaymentDetail, error)
	Create(ctx context.Context, p AdvancePayment) (int64, error)
	Balance(ctx context.Context, clientID int64) (Balance, error)
	Analytics(ctx context.Context, clientID int64) (Analytics, error)
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
	SELECT ap.id, ap.client_id, ap.amount, ap.payment_type, ap.reference_no,
	       ap.remarks, ap.attachment_path, ap.received_at, ap.created_by,
	       ap.created_at, c.name AS client_name
	FROM advance_payments ap
	JOIN clients c ON c.id = ap.client_id`

func (r *repository) Get(ctx context.Context, id int64) (*AdvancePaymentDetail, error) {
	rows, err := r.db.Query(ctx, detailQuery+` WHERE ap.id = $1`, id)
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

func (r *repository) ListForClient(ctx context.Context, clientID int64) ([]AdvancePaymentDetail, error) {
	rows, err := r.db.Query(ctx, detailQuery+` WHERE ap.client_id = $1 ORDER BY ap.received_at DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

func (r *repository) Create(ctx context.Context, p AdvancePayment) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO advance_payments (
			client_id, amount, payment_type, reference_no, remarks,
			attachment_path, received_at, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id`,
		p.ClientID, p.Amount, p.PaymentType,
		pgtype.Text{String: derefStr(p.ReferenceNo), Valid: p.ReferenceNo != nil},
		pgtype.Text{String: derefStr(p.Remarks), Valid: p.Remarks != nil},
		pgtype.Text{String: derefStr(p.AttachmentPath), Valid: p.AttachmentPath != nil},
		p.ReceivedAt, p.CreatedBy,
	).Scan(&id)
	return id, err
}

// Balance derives the client's position from the two ledgers: advances
// received less allocation transactions already drawn.
func (r *repository) Balance(ctx context.Context, clientID int64) (Balance, error) {
	b := Balance{ClientID: clientID}
	err := r.db.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(amount) FROM advance_payments WHERE client_id = $1), 0),
			COALESCE((SELECT SUM(amount) FROM transactions WHERE client_id = $1 AND advance_allocation), 0)`,
		clientID).Scan(&b.Received, &b.Allocated)
	if err != nil {
		return Balance{}, err
	}
	b.Available = b.Received - b.Allocated
	return b, nil
}

func (r *repository) Analytics(ctx context.Context, clientID int64) (Analytics, error) {
	balance, err := r.Balance(ctx, clientID)
	if err != nil {
		return Analytics{}, err
	}

	a := Analytics{Balance: balance}
	var lastAdvance pgtype.Timestamptz
	err = r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM advance_payments WHERE client_id = $1),
			(SELECT COUNT(*) FROM transactions WHERE client_id = $1 AND advance_allocation),
			(SELECT MAX(received_at) FROM advance_payments WHERE client_id = $1)`,
		clientID).Scan(&a.AdvanceCount, &a.AllocationCount, &lastAdvance)
	if err != nil {
		return Analytics{}, err
	}
	if lastAdvance.Valid {
		val := lastAdvance.Time
		a.LastAdvanceAt = &val
	}
	return a, nil
}

func collectDetails(rows pgx.Rows) ([]AdvancePaymentDetail, error) {
	var result []AdvancePaymentDetail
	for rows.Next() {
		var d AdvancePaymentDetail
		var referenceNo, remarks, attachment pgtype.Text
		var receivedAt, createdAt pgtype.Timestamptz

		err := rows.Scan(&d.ID, &d.ClientID, &d.Amount, &d.PaymentType, &referenceNo,
			&remarks, &attachment, &receivedAt, &d.CreatedBy, &createdAt, &d.ClientName)
		if err != nil {
			return nil, err
		}
		d.ReferenceNo = textPtr(referenceNo)
		d.Remarks = textPtr(remarks)
		d.AttachmentPath = textPtr(attachment)
		d.ReceivedAt = receivedAt.Time
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
