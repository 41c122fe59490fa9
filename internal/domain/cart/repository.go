package cart

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines cart data access interface
type Repository interface {
	Upsert(ctx context.Context, userID, menuItemID uuid.UUID, quantity int) error
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (bool, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Item, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	ClearTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates cart repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Upsert(ctx context.Context, userID, menuItemID uuid.UUID, quantity int) error {
	query := `
		INSERT INTO cart_items (id, user_id, menu_item_id, quantity)
		VALUES (gen_random_uuid(), $1, $2, $3)
		ON CONFLICT (user_id, menu_item_id) DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity,
			updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, userID, menuItemID, quantity)
	return err
}

func (r *repository) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, itemID, userID, quantity)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *repository) Remove(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	items := make([]Item, 0)
	err := r.db.SelectContext(ctx, &items, `
		SELECT c.id, c.user_id, c.menu_item_id, c.quantity, c.created_at, c.updated_at,
		       m.name AS item_name, m.price, m.partner_id, m.is_available
		FROM cart_items c
		JOIN menu_items m ON m.id = c.menu_item_id
		WHERE c.user_id = $1
		ORDER BY c.created_at
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return items, nil
		}
		return nil, err
	}
	return items, nil
}

func (r *repository) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

// ClearTx empties the cart within an external transaction, used by checkout
// so order creation and cart clearing commit together.
func (r *repository) ClearTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}
