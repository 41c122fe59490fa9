package reward

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	GetSettings(ctx context.Context) (*Settings, error)
	UpdateSettings(ctx context.Context, settings *Settings) error
	GetLedger(ctx context.Context, userID uuid.UUID) (*Ledger, error)
	AwardPoints(ctx context.Context, userID uuid.UUID, orderID *uuid.UUID, points int64, description string) error
	AwardPointsTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, orderID *uuid.UUID, points int64, description string) error
	RedeemPoints(ctx context.Context, userID uuid.UUID, points int64, orderID *uuid.UUID, description string) error
	ListTransactions(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]Transaction, error)
	ClearHistory(ctx context.Context, userID uuid.UUID) error
}

// RewardRepository provides reward ledger and settings operations.
type RewardRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

func (r *RewardRepository) GetSettings(ctx context.Context) (*Settings, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Settings
	err := r.db.GetContext(ctx2, &s, `
		SELECT id, points_per_currency_unit, points_to_currency_ratio, min_points_to_redeem,
		       redemption_policy, bonus_percent_by_category, redemption_tiers, updated_at
		FROM reward_settings
		ORDER BY id
		LIMIT 1
	`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("%w: get settings", ErrInternal)
	}

	s.ParseJSONB()
	return &s, nil
}

func (r *RewardRepository) UpdateSettings(ctx context.Context, settings *Settings) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	bonusRaw, err := json.Marshal(settings.BonusPercent)
	if err != nil {
		return fmt.Errorf("%w: marshal bonus percentages", ErrInternal)
	}
	tiersRaw, err := json.Marshal(settings.RedemptionTiers)
	if err != nil {
		return fmt.Errorf("%w: marshal redemption tiers", ErrInternal)
	}

	// Single-row table: insert once, update thereafter.
	_, err = r.db.ExecContext(ctx2, `
		INSERT INTO reward_settings (
			id, points_per_currency_unit, points_to_currency_ratio, min_points_to_redeem,
			redemption_policy, bonus_percent_by_category, redemption_tiers, updated_at
		)
		VALUES (1, $1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			points_per_currency_unit = EXCLUDED.points_per_currency_unit,
			points_to_currency_ratio = EXCLUDED.points_to_currency_ratio,
			min_points_to_redeem = EXCLUDED.min_points_to_redeem,
			redemption_policy = EXCLUDED.redemption_policy,
			bonus_percent_by_category = EXCLUDED.bonus_percent_by_category,
			redemption_tiers = EXCLUDED.redemption_tiers,
			updated_at = NOW()
	`, settings.PointsPerCurrencyUnit, settings.PointsToCurrencyRatio, settings.MinPointsToRedeem,
		settings.RedemptionPolicy, bonusRaw, tiersRaw)
	if err != nil {
		return fmt.Errorf("%w: update settings", ErrInternal)
	}

	return nil
}

func (r *RewardRepository) GetLedger(ctx context.Context, userID uuid.UUID) (*Ledger, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var l Ledger
	err := r.db.GetContext(ctx2, &l, `
		SELECT user_id, current_points, total_points_earned, total_points_redeemed, created_at, updated_at
		FROM reward_ledgers
		WHERE user_id = $1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get ledger", ErrInternal)
	}

	return &l, nil
}

func (r *RewardRepository) AwardPoints(ctx context.Context, userID uuid.UUID, orderID *uuid.UUID, points int64, description string) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	if err := r.AwardPointsTx(ctx2, tx, userID, orderID, points, description); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return nil
}

// AwardPointsTx awards points within an external transaction. The ledger row is
// created lazily on first award. Balance upsert and the earned transaction row
// are written in the same transaction — the caller commits or rolls back both.
func (r *RewardRepository) AwardPointsTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, orderID *uuid.UUID, points int64, description string) error {
	if points <= 0 {
		return ErrInvalidRedemptionAmount
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO reward_ledgers (user_id, current_points, total_points_earned, total_points_redeemed)
		VALUES ($1, $2, $2, 0)
		ON CONFLICT (user_id) DO UPDATE SET
			current_points = reward_ledgers.current_points + EXCLUDED.current_points,
			total_points_earned = reward_ledgers.total_points_earned + EXCLUDED.total_points_earned,
			updated_at = NOW()
	`, userID, points)
	if err != nil {
		return fmt.Errorf("%w: upsert ledger", ErrInternal)
	}

	if err := r.insertTransaction(ctx, tx, userID, points, TxTypeEarned, orderID, description); err != nil {
		return err
	}

	return nil
}

// RedeemPoints decrements the balance after a locked sufficiency check.
// FOR UPDATE holds the ledger row until commit so two concurrent redemptions
// cannot both pass the check against a stale balance.
func (r *RewardRepository) RedeemPoints(ctx context.Context, userID uuid.UUID, points int64, orderID *uuid.UUID, description string) error {
	if points <= 0 {
		return ErrInvalidRedemptionAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowContext(ctx2, `
		SELECT current_points FROM reward_ledgers WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInsufficientPoints
		}
		return fmt.Errorf("%w: lock ledger row", ErrInternal)
	}

	if balance < points {
		return ErrInsufficientPoints
	}

	_, err = tx.ExecContext(ctx2, `
		UPDATE reward_ledgers
		SET current_points = current_points - $2,
		    total_points_redeemed = total_points_redeemed + $2,
		    updated_at = NOW()
		WHERE user_id = $1
	`, userID, points)
	if err != nil {
		return fmt.Errorf("%w: update ledger", ErrInternal)
	}

	if err := r.insertTransaction(ctx2, tx, userID, -points, TxTypeRedeemed, orderID, description); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return nil
}

func (r *RewardRepository) ListTransactions(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	limit := pagination.Limit
	if limit <= 0 {
		limit = 20
	}

	transactions := make([]Transaction, 0)
	err := r.db.SelectContext(ctx2, &transactions, `
		SELECT id, user_id, points_delta, tx_type, description, order_id, created_at
		FROM reward_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, pagination.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions", ErrInternal)
	}

	return transactions, nil
}

// ClearHistory purges the transaction log for a user. The ledger balances are
// kept — only the audit trail is removed.
func (r *RewardRepository) ClearHistory(ctx context.Context, userID uuid.UUID) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `DELETE FROM reward_transactions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("%w: clear history", ErrInternal)
	}

	return nil
}

func (r *RewardRepository) insertTransaction(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, pointsDelta int64, txType TxType, orderID *uuid.UUID, description string) error {
	if txType != TxTypeEarned && txType != TxTypeRedeemed {
		return ErrInternal
	}

	if strings.TrimSpace(description) == "" {
		description = "reward points adjustment"
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO reward_transactions (id, user_id, points_delta, tx_type, description, order_id)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
	`, userID, pointsDelta, txType, description, orderID)
	if err != nil {
		return fmt.Errorf("%w: insert transaction", ErrInternal)
	}

	return nil
}
