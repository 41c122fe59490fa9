package reward

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category represents venue / order category (matches venue_category enum)
type Category string

const (
	CategoryRestaurant Category = "restaurant"
	CategoryCafe       Category = "cafe"
	CategoryFastFood   Category = "fast_food"
)

// IsValidCategory checks if category is one of the known values
func IsValidCategory(c string) bool {
	switch Category(c) {
	case CategoryRestaurant, CategoryCafe, CategoryFastFood:
		return true
	}
	return false
}

// RedemptionPolicy selects how redemption amounts are validated.
type RedemptionPolicy string

const (
	// PolicyFreeform accepts any amount at or above the minimum.
	PolicyFreeform RedemptionPolicy = "freeform"
	// PolicyTiered accepts only amounts matching a configured tier exactly.
	PolicyTiered RedemptionPolicy = "tiered"
)

// RedemptionTier is a fixed redeemable points amount for the tiered policy.
type RedemptionTier struct {
	Points int64  `json:"points"`
	Label  string `json:"label"`
}

// Settings is the singleton reward configuration row.
// Admin-mutable; read before every points computation.
type Settings struct {
	ID                    int              `db:"id" json:"-"`
	PointsPerCurrencyUnit decimal.Decimal  `db:"points_per_currency_unit" json:"points_per_currency_unit"`
	PointsToCurrencyRatio decimal.Decimal  `db:"points_to_currency_ratio" json:"points_to_currency_ratio"`
	MinPointsToRedeem     int64            `db:"min_points_to_redeem" json:"min_points_to_redeem"`
	RedemptionPolicy      RedemptionPolicy `db:"redemption_policy" json:"redemption_policy"`
	UpdatedAt             time.Time        `db:"updated_at" json:"updated_at"`

	// JSONB columns — raw DB storage
	BonusPercentRaw    []byte `db:"bonus_percent_by_category" json:"-"`
	RedemptionTiersRaw []byte `db:"redemption_tiers" json:"-"`

	// Parsed structs — populated after scanning
	BonusPercent    map[Category]decimal.Decimal `db:"-" json:"bonus_percent_by_category"`
	RedemptionTiers []RedemptionTier             `db:"-" json:"redemption_tiers"`
}

// ParseJSONB parses the raw JSONB fields into typed values. Must be called after DB scan.
func (s *Settings) ParseJSONB() {
	if len(s.BonusPercentRaw) > 0 {
		_ = json.Unmarshal(s.BonusPercentRaw, &s.BonusPercent)
	}
	if s.BonusPercent == nil {
		s.BonusPercent = make(map[Category]decimal.Decimal)
	}
	if len(s.RedemptionTiersRaw) > 0 {
		_ = json.Unmarshal(s.RedemptionTiersRaw, &s.RedemptionTiers)
	}
}

// BonusFor returns the bonus percentage for a category; 0 for unknown categories.
func (s *Settings) BonusFor(category Category) decimal.Decimal {
	if pct, ok := s.BonusPercent[category]; ok {
		return pct
	}
	return decimal.Zero
}

// MatchesTier reports whether points matches a configured redemption tier exactly.
func (s *Settings) MatchesTier(points int64) bool {
	for _, t := range s.RedemptionTiers {
		if t.Points == points {
			return true
		}
	}
	return false
}

// TxType defines supported reward transaction types.
type TxType string

const (
	TxTypeEarned   TxType = "earned"
	TxTypeRedeemed TxType = "redeemed"
)

// Ledger is the per-user points balance row, created lazily on first award.
// Invariant: CurrentPoints = TotalEarned - TotalRedeemed.
type Ledger struct {
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	CurrentPoints int64     `db:"current_points" json:"current_points"`
	TotalEarned   int64     `db:"total_points_earned" json:"total_points_earned"`
	TotalRedeemed int64     `db:"total_points_redeemed" json:"total_points_redeemed"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction is an append-only reward ledger entry.
// PointsDelta is positive for earned, negative for redeemed.
type Transaction struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	PointsDelta int64      `db:"points_delta" json:"points_delta"`
	TxType      TxType     `db:"tx_type" json:"tx_type"`
	Description string     `db:"description" json:"description"`
	OrderID     *uuid.UUID `db:"order_id" json:"order_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Pagination controls simple list pagination.
type Pagination struct {
	Limit  int
	Offset int
}
