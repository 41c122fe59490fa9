package order

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines order data access interface
type Repository interface {
	BeginTx(ctx context.Context) (*sqlx.Tx, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Order, error)
	GetItems(ctx context.Context, orderID uuid.UUID) ([]Item, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Order, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID, limit, offset int) ([]Order, error)
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status) error
	MarkConfirmedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status) error
	MarkCompletedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, rewardsAwarded bool) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates order repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `id, user_id, partner_id, category, status, subtotal, delivery_fee, discount,
	total_amount, delivery_note, address, is_confirmed, rewards_awarded, created_at, updated_at`

func (r *repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{})
}

func (r *repository) CreateTx(ctx context.Context, tx *sqlx.Tx, o *Order) error {
	query := `
		INSERT INTO orders (
			id, user_id, partner_id, category, status, subtotal, delivery_fee, discount,
			total_amount, delivery_note, address, is_confirmed, rewards_awarded, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := tx.ExecContext(ctx, query,
		o.ID, o.UserID, o.PartnerID, o.Category, o.Status, o.Subtotal, o.DeliveryFee, o.Discount,
		o.TotalAmount, o.DeliveryNote, o.Address, o.IsConfirmed, o.RewardsAwarded, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return err
	}

	for i := range o.Items {
		item := &o.Items[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, menu_item_id, name, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, item.ID, o.ID, item.MenuItemID, item.Name, item.UnitPrice, item.Quantity)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	var o Order
	err := r.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// GetForUpdateTx locks the order row until the transaction commits. All status
// transitions go through this lock so concurrent requests serialize.
func (r *repository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Order, error) {
	var o Order
	err := tx.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *repository) GetItems(ctx context.Context, orderID uuid.UUID) ([]Item, error) {
	items := make([]Item, 0)
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, order_id, menu_item_id, name, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Order, error) {
	if limit <= 0 {
		limit = 20
	}

	orders := make([]Order, 0)
	err := r.db.SelectContext(ctx, &orders, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListByPartner(ctx context.Context, partnerID uuid.UUID, limit, offset int) ([]Order, error) {
	if limit <= 0 {
		limit = 20
	}

	orders := make([]Order, 0)
	err := r.db.SelectContext(ctx, &orders, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE partner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, partnerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status) error {
	_, err := tx.ExecContext(ctx, `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *repository) MarkConfirmedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE orders SET is_confirmed = TRUE, status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	return err
}

func (r *repository) MarkCompletedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, rewardsAwarded bool) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = 'completed', rewards_awarded = $2, updated_at = NOW() WHERE id = $1
	`, id, rewardsAwarded)
	return err
}
