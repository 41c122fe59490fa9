package payment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines payment data access interface
type Repository interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, p *Payment) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error)
	MarkRefundedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Payment, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates payment repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const paymentColumns = `id, order_id, user_id, amount, provider, reference_id, status, refunded_at, created_at`

// CreateTx records a verified payment inside the caller's transaction so the
// payment row and the order status change commit together.
func (r *repository) CreateTx(ctx context.Context, tx *sqlx.Tx, p *Payment) error {
	query := `
		INSERT INTO payments (id, order_id, user_id, amount, provider, reference_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.ExecContext(ctx, query,
		p.ID, p.OrderID, p.UserID, p.Amount, p.Provider, p.ReferenceID, p.Status, p.CreatedAt,
	)
	return err
}

func (r *repository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error) {
	var p Payment
	err := r.db.GetContext(ctx, &p, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) MarkRefundedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE payments SET status = 'refunded', refunded_at = NOW() WHERE id = $1
	`, id)
	return err
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Payment, error) {
	if limit <= 0 {
		limit = 20
	}

	payments := make([]Payment, 0)
	err := r.db.SelectContext(ctx, &payments, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return payments, nil
}
