package reward

import "github.com/shopspring/decimal"

// EarnedPoints is the result of a points computation for one order.
type EarnedPoints struct {
	BasePoints  int64 `json:"base_points"`
	BonusPoints int64 `json:"bonus_points"`
	TotalPoints int64 `json:"total_points"`
}

// ComputeEarnedPoints computes points for an order amount and category.
// basePoints = floor(amount * rate), bonusPoints = floor(basePoints * bonus% / 100).
// Unknown categories earn no bonus. Pure function, caller validates amount >= 0.
func ComputeEarnedPoints(orderAmount decimal.Decimal, category Category, settings *Settings) EarnedPoints {
	base := orderAmount.Mul(settings.PointsPerCurrencyUnit).Floor().IntPart()

	bonus := decimal.NewFromInt(base).
		Mul(settings.BonusFor(category)).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()

	return EarnedPoints{
		BasePoints:  base,
		BonusPoints: bonus,
		TotalPoints: base + bonus,
	}
}

// ComputeRedemptionValue converts points into a currency discount.
// Validates the amount against the configured redemption policy; balance
// sufficiency is checked by the ledger, not here.
func ComputeRedemptionValue(points int64, settings *Settings) (decimal.Decimal, error) {
	if points <= 0 || points < settings.MinPointsToRedeem {
		return decimal.Zero, ErrInvalidRedemptionAmount
	}
	if settings.RedemptionPolicy == PolicyTiered && !settings.MatchesTier(points) {
		return decimal.Zero, ErrInvalidRedemptionAmount
	}
	if settings.PointsToCurrencyRatio.IsZero() {
		return decimal.Zero, ErrInvalidSettings
	}

	return decimal.NewFromInt(points).Div(settings.PointsToCurrencyRatio), nil
}
