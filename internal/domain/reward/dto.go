package reward

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RedeemRequest for POST /rewards/redeem
type RedeemRequest struct {
	Points  int64      `json:"points" validate:"required,gt=0"`
	OrderID *uuid.UUID `json:"order_id" validate:"omitempty"`
}

// RedeemResponse returned after a successful redemption
type RedeemResponse struct {
	PointsRedeemed int64           `json:"points_redeemed"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// UpdateSettingsRequest for PUT /rewards/settings (admin)
type UpdateSettingsRequest struct {
	PointsPerCurrencyUnit string            `json:"points_per_currency_unit" validate:"required,amount"`
	PointsToCurrencyRatio string            `json:"points_to_currency_ratio" validate:"required,amount"`
	MinPointsToRedeem     int64             `json:"min_points_to_redeem" validate:"gte=0"`
	RedemptionPolicy      string            `json:"redemption_policy" validate:"required,oneof=freeform tiered"`
	BonusPercent          map[string]string `json:"bonus_percent_by_category" validate:"required"`
	RedemptionTiers       []RedemptionTier  `json:"redemption_tiers" validate:"omitempty,dive"`
}

// ToSettings converts the request into a Settings value.
func (r *UpdateSettingsRequest) ToSettings() (*Settings, error) {
	rate, err := decimal.NewFromString(r.PointsPerCurrencyUnit)
	if err != nil {
		return nil, ErrInvalidSettings
	}
	ratio, err := decimal.NewFromString(r.PointsToCurrencyRatio)
	if err != nil {
		return nil, ErrInvalidSettings
	}

	bonus := make(map[Category]decimal.Decimal, len(r.BonusPercent))
	for category, pct := range r.BonusPercent {
		if !IsValidCategory(category) {
			return nil, ErrInvalidSettings
		}
		d, err := decimal.NewFromString(pct)
		if err != nil || d.IsNegative() {
			return nil, ErrInvalidSettings
		}
		bonus[Category(category)] = d
	}

	return &Settings{
		PointsPerCurrencyUnit: rate,
		PointsToCurrencyRatio: ratio,
		MinPointsToRedeem:     r.MinPointsToRedeem,
		RedemptionPolicy:      RedemptionPolicy(r.RedemptionPolicy),
		BonusPercent:          bonus,
		RedemptionTiers:       r.RedemptionTiers,
	}, nil
}
