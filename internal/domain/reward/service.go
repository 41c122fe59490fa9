package reward

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	settingsCacheKey = "reward:settings"
	settingsCacheTTL = 5 * time.Minute
)

// Service handles reward business logic
type Service struct {
	repo  Repository
	redis *redis.Client // nil if Redis disabled
}

// NewService creates reward service
func NewService(repo Repository, redis *redis.Client) *Service {
	return &Service{repo: repo, redis: redis}
}

// GetSettings returns current reward settings, cached briefly in Redis.
func (s *Service) GetSettings(ctx context.Context) (*Settings, error) {
	if cached := s.cachedSettings(ctx); cached != nil {
		return cached, nil
	}

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	s.cacheSettings(ctx, settings)
	return settings, nil
}

// UpdateSettings replaces the reward configuration (admin only).
func (s *Service) UpdateSettings(ctx context.Context, settings *Settings) error {
	if settings.PointsPerCurrencyUnit.IsNegative() || settings.PointsToCurrencyRatio.Sign() <= 0 {
		return ErrInvalidSettings
	}
	if settings.MinPointsToRedeem < 0 {
		return ErrInvalidSettings
	}
	switch settings.RedemptionPolicy {
	case PolicyFreeform, PolicyTiered:
	default:
		return ErrInvalidSettings
	}
	if settings.RedemptionPolicy == PolicyTiered && len(settings.RedemptionTiers) == 0 {
		return ErrInvalidSettings
	}

	if err := s.repo.UpdateSettings(ctx, settings); err != nil {
		return err
	}

	s.invalidateSettingsCache(ctx)
	return nil
}

// GetBalance returns the user's ledger, zero-valued if no award has happened yet.
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (*Ledger, error) {
	ledger, err := s.repo.GetLedger(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return &Ledger{UserID: userID}, nil
	}
	return ledger, nil
}

// AwardForOrderTx computes points for a completed order and credits them within
// the caller's transaction. Returns the computed point breakdown.
func (s *Service) AwardForOrderTx(ctx context.Context, tx *sqlx.Tx, userID, orderID uuid.UUID, orderAmount decimal.Decimal, category Category) (EarnedPoints, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return EarnedPoints{}, err
	}

	earned := ComputeEarnedPoints(orderAmount, category, settings)
	if earned.TotalPoints <= 0 {
		return earned, nil
	}

	description := fmt.Sprintf("Earned for order %s", orderID)
	if err := s.repo.AwardPointsTx(ctx, tx, userID, &orderID, earned.TotalPoints, description); err != nil {
		return EarnedPoints{}, err
	}

	return earned, nil
}

// ReturnPoints credits points back outside an order completion, used as the
// compensating entry when a redemption's order never materializes.
func (s *Service) ReturnPoints(ctx context.Context, userID uuid.UUID, points int64, description string) error {
	return s.repo.AwardPoints(ctx, userID, nil, points, description)
}

// Redeem converts points into a currency discount. Validation runs against the
// configured redemption policy; the sufficiency check and decrement happen
// under a row lock in the repository.
func (s *Service) Redeem(ctx context.Context, userID uuid.UUID, points int64, orderID *uuid.UUID) (decimal.Decimal, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	discount, err := ComputeRedemptionValue(points, settings)
	if err != nil {
		return decimal.Zero, err
	}

	description := fmt.Sprintf("Redeemed %d points", points)
	if orderID != nil {
		description = fmt.Sprintf("Redeemed %d points on order %s", points, orderID)
	}
	if err := s.repo.RedeemPoints(ctx, userID, points, orderID, description); err != nil {
		return decimal.Zero, err
	}

	return discount, nil
}

// History returns the user's reward transaction log, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, userID, Pagination{Limit: limit, Offset: offset})
}

// ClearHistory purges the user's transaction log.
func (s *Service) ClearHistory(ctx context.Context, userID uuid.UUID) error {
	return s.repo.ClearHistory(ctx, userID)
}

// Redis cache helpers (handle nil redis gracefully)
func (s *Service) cachedSettings(ctx context.Context) *Settings {
	if s.redis == nil {
		return nil
	}
	raw, err := s.redis.Get(ctx, settingsCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var settings Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil
	}
	if settings.BonusPercent == nil {
		settings.BonusPercent = make(map[Category]decimal.Decimal)
	}
	return &settings
}

func (s *Service) cacheSettings(ctx context.Context, settings *Settings) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, settingsCacheKey, raw, settingsCacheTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to cache reward settings")
	}
}

func (s *Service) invalidateSettingsCache(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, settingsCacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate reward settings cache")
	}
}
