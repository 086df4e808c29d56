package clients

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

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Client, error)
	List(ctx context.Context, req ListClientsRequest) ([]Client, int, error)
	Create(ctx context.Context, client Client) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	ExistsByField(ctx context.Context, field, value string, excludeID int64) (bool, error)
	Exists(ctx context.Context, id int64) (bool, error)
	HasOrders(ctx context.Context, id int64) (bool, error)
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

const clientColumns = `
	id, name, alias, email, mobile,
	corr_country, corr_state, corr_city, corr_area, corr_postal_code, corr_landmark,
	perm_country, perm_state, perm_city, perm_area, perm_postal_code, perm_landmark,
	created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Client, error) {
	row := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	whereClause := ""
	var args []interface{}
	argPos := 1

	if req.Search != nil && *req.Search != "" {
		pattern := "%" + *req.Search + "%"
		whereClause = fmt.Sprintf("WHERE (name ILIKE $%d OR alias ILIKE $%d OR email ILIKE $%d OR mobile ILIKE $%d)", argPos, argPos, argPos, argPos)
		args = append(args, pattern)
		argPos++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM clients %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM clients %s ORDER BY name LIMIT $%d OFFSET $%d`,
		clientColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *c)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, client Client) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO clients (
			name, alias, email, mobile,
			corr_country, corr_state, corr_city, corr_area, corr_postal_code, corr_landmark,
			perm_country, perm_state, perm_city, perm_area, perm_postal_code, perm_landmark,
			created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16,
			$17, NOW(), NOW()
		) RETURNING id`,
		client.Name,
		pgtype.Text{String: derefString(client.Alias), Valid: client.Alias != nil},
		client.Email, client.Mobile,
		client.CorrespondenceAddress.Country, client.CorrespondenceAddress.State,
		client.CorrespondenceAddress.City, client.CorrespondenceAddress.Area,
		client.CorrespondenceAddress.PostalCode, client.CorrespondenceAddress.Landmark,
		client.PermanentAddress.Country, client.PermanentAddress.State,
		client.PermanentAddress.City, client.PermanentAddress.Area,
		client.PermanentAddress.PostalCode, client.PermanentAddress.Landmark,
		client.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE clients SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{
		"name", "alias", "email", "mobile",
		"corr_country", "corr_state", "corr_city", "corr_area", "corr_postal_code", "corr_landmark",
		"perm_country", "perm_state", "perm_city", "perm_area", "perm_postal_code", "perm_landmark",
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
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByField probes email or mobile uniqueness. excludeID skips the record
// being edited.
func (r *repository) ExistsByField(ctx context.Context, field, value string, excludeID int64) (bool, error) {
	if field != "email" && field != "mobile" {
		return false, fmt.Errorf("clients: unsupported uniqueness field %q", field)
	}
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM clients WHERE %s = $1 AND id <> $2)`, field)
	var exists bool
	err := r.db.QueryRow(ctx, query, value, excludeID).Scan(&exists)
	return exists, err
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) HasOrders(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE client_id = $1)`, id).Scan(&exists)
	return exists, err
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	var alias pgtype.Text
	var corrLandmark, permLandmark pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&c.ID, &c.Name, &alias, &c.Email, &c.Mobile,
		&c.CorrespondenceAddress.Country, &c.CorrespondenceAddress.State,
		&c.CorrespondenceAddress.City, &c.CorrespondenceAddress.Area,
		&c.CorrespondenceAddress.PostalCode, &corrLandmark,
		&c.PermanentAddress.Country, &c.PermanentAddress.State,
		&c.PermanentAddress.City, &c.PermanentAddress.Area,
		&c.PermanentAddress.PostalCode, &permLandmark,
		&c.CreatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if alias.Valid {
		val := alias.String
		c.Alias = &val
	}
	c.CorrespondenceAddress.Landmark = corrLandmark.String
	c.PermanentAddress.Landmark = permLandmark.String
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time
	return &c, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
