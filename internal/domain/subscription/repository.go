package subscription

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines subscription data access interface
type Repository interface {
	ListPlans(ctx context.Context) ([]Plan, error)
	GetPlan(ctx context.Context, id PlanID) (*Plan, error)
	Create(ctx context.Context, sub *Subscription) error
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*Subscription, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates subscription repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListPlans(ctx context.Context) ([]Plan, error) {
	plans := make([]Plan, 0)
	err := r.db.SelectContext(ctx, &plans, `
		SELECT id, name, description, price_monthly, is_active, perks, created_at
		FROM plans
		WHERE is_active = TRUE
		ORDER BY price_monthly
	`)
	if err != nil {
		return nil, err
	}
	for i := range plans {
		plans[i].ParseJSONB()
	}
	return plans, nil
}

func (r *repository) GetPlan(ctx context.Context, id PlanID) (*Plan, error) {
	var p Plan
	err := r.db.GetContext(ctx, &p, `
		SELECT id, name, description, price_monthly, is_active, perks, created_at
		FROM plans
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.ParseJSONB()
	return &p, nil
}

func (r *repository) Create(ctx context.Context, sub *Subscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, plan_id, started_at, expires_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.PlanID, sub.StartedAt, sub.ExpiresAt, sub.Status, sub.CreatedAt, sub.UpdatedAt,
	)
	return err
}

func (r *repository) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	var sub Subscription
	err := r.db.GetContext(ctx, &sub, `
		SELECT id, user_id, plan_id, started_at, expires_at, status, cancelled_at, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) Cancel(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, id)
	return err
}

// ExpireOlderThan marks overdue active subscriptions expired, returning the count.
func (r *repository) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'active' AND expires_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
