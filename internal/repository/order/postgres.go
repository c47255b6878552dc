package order

import (
	"context"
	"encoding/json"
	"errors"

	"orderup/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const orderColumns = `id::text, number, reference, customer_id::text, session_key, status, payment_method,
       payment_status, payment_reference, contact, delivery, lines,
       subtotal_minor, fees_minor, total_minor, currency, failure_reason, created_at, updated_at`

func (r *postgresRepo) CreatePending(ctx context.Context, o domain.Order) (*domain.Order, bool, error) {
	contact, err := json.Marshal(o.Contact)
	if err != nil {
		return nil, false, err
	}
	delivery, err := json.Marshal(o.Delivery)
	if err != nil {
		return nil, false, err
	}
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return nil, false, err
	}

	q := `
INSERT INTO orders (number, reference, customer_id, session_key, status, payment_method,
                    contact, delivery, lines, subtotal_minor, fees_minor, total_minor, currency)
VALUES ($1, $2, $3::text::uuid, $4, 'pending', $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (reference) DO NOTHING
RETURNING ` + orderColumns
	created, err := r.scanOrder(r.pool.QueryRow(ctx, q,
		o.Number, o.Reference, o.CustomerID, o.SessionKey, o.PaymentMethod,
		contact, delivery, lines, int64(o.Subtotal), int64(o.Fees), int64(o.Total), o.Currency,
	))
	if err == nil {
		r.logger.Info("order repo: created", zap.String("id", created.ID), zap.String("reference", created.Reference))
		return created, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		r.logger.Error("order repo: create", zap.String("reference", o.Reference), zap.Error(err))
		return nil, false, err
	}
	existing, err := r.GetByReference(ctx, o.Reference)
	if err != nil {
		return nil, false, err
	}
	r.logger.Info("order repo: reference exists", zap.String("id", existing.ID), zap.String("reference", existing.Reference))
	return existing, false, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id::text = $1`
	return r.scanOrder(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) GetByReference(ctx context.Context, reference string) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE reference = $1`
	return r.scanOrder(r.pool.QueryRow(ctx, q, reference))
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + orderColumns + `
FROM orders
WHERE customer_id::text = $1
ORDER BY created_at DESC
LIMIT $2`
	rows, err := r.pool.Query(ctx, q, customerID, limit)
	if err != nil {
		r.logger.Error("order repo: list", zap.String("customer_id", customerID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) MarkConfirmed(ctx context.Context, id, paymentStatus, paymentReference string) (*domain.Order, error) {
	q := `
UPDATE orders
SET status = 'confirmed', payment_status = $2, payment_reference = $3, failure_reason = '', updated_at = now()
WHERE id::text = $1
RETURNING ` + orderColumns
	o, err := r.scanOrder(r.pool.QueryRow(ctx, q, id, paymentStatus, paymentReference))
	if err != nil {
		return nil, err
	}
	r.logger.Info("order repo: confirmed", zap.String("id", id), zap.String("payment_status", paymentStatus))
	return o, nil
}

func (r *postgresRepo) MarkFailed(ctx context.Context, id, reason string) (*domain.Order, error) {
	q := `
UPDATE orders
SET status = 'failed', failure_reason = $2, updated_at = now()
WHERE id::text = $1
RETURNING ` + orderColumns
	o, err := r.scanOrder(r.pool.QueryRow(ctx, q, id, reason))
	if err != nil {
		return nil, err
	}
	r.logger.Info("order repo: failed", zap.String("id", id), zap.String("reason", reason))
	return o, nil
}

func (r *postgresRepo) Reopen(ctx context.Context, id string, o domain.Order) (*domain.Order, error) {
	contact, err := json.Marshal(o.Contact)
	if err != nil {
		return nil, err
	}
	delivery, err := json.Marshal(o.Delivery)
	if err != nil {
		return nil, err
	}
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return nil, err
	}

	q := `
UPDATE orders
SET status = 'pending', payment_method = $2, contact = $3, delivery = $4, lines = $5,
    subtotal_minor = $6, fees_minor = $7, total_minor = $8, currency = $9,
    failure_reason = '', updated_at = now()
WHERE id::text = $1 AND status = 'failed'
RETURNING ` + orderColumns
	reopened, err := r.scanOrder(r.pool.QueryRow(ctx, q,
		id, o.PaymentMethod, contact, delivery, lines,
		int64(o.Subtotal), int64(o.Fees), int64(o.Total), o.Currency,
	))
	if err != nil {
		return nil, err
	}
	r.logger.Info("order repo: reopened", zap.String("id", id), zap.Int64("total_minor", int64(reopened.Total)))
	return reopened, nil
}

func (r *postgresRepo) scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var contact, delivery, lines []byte
	var subtotal, fees, total int64
	err := row.Scan(
		&o.ID, &o.Number, &o.Reference, &o.CustomerID, &o.SessionKey, &o.Status, &o.PaymentMethod,
		&o.PaymentStatus, &o.PaymentReference, &contact, &delivery, &lines,
		&subtotal, &fees, &total, &o.Currency, &o.FailureReason, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("order repo: scan", zap.Error(err))
		return nil, err
	}
	if err := json.Unmarshal(contact, &o.Contact); err != nil {
		r.logger.Error("order repo: decode contact", zap.String("id", o.ID), zap.Error(err))
		return nil, err
	}
	if err := json.Unmarshal(delivery, &o.Delivery); err != nil {
		r.logger.Error("order repo: decode delivery", zap.String("id", o.ID), zap.Error(err))
		return nil, err
	}
	if err := json.Unmarshal(lines, &o.Lines); err != nil {
		r.logger.Error("order repo: decode lines", zap.String("id", o.ID), zap.Error(err))
		return nil, err
	}
	o.Subtotal = domain.Money(subtotal)
	o.Fees = domain.Money(fees)
	o.Total = domain.Money(total)
	return &o, nil
}
