package subscription

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanID represents meal plan type
type PlanID string

const (
	PlanBasic   PlanID = "basic"
	PlanRegular PlanID = "regular"
	PlanPremium PlanID = "premium"
)

// Status represents subscription status
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// PerksConfig defines what a plan grants its subscribers.
type PerksConfig struct {
	FreeDelivery    bool `json:"free_delivery"`
	PrioritySupport bool `json:"priority_support"`
	MaxOrdersPerDay int  `json:"max_orders_per_day"`
}

// Plan represents a meal subscription plan
type Plan struct {
	ID           PlanID          `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Description  string          `db:"description" json:"description"`
	PriceMonthly decimal.Decimal `db:"price_monthly" json:"price_monthly"`
	IsActive     bool            `db:"is_active" json:"is_active"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`

	// JSONB column — raw DB storage
	PerksRaw []byte `db:"perks" json:"-"`

	// Parsed struct — populated after scanning
	Perks PerksConfig `db:"-" json:"perks"`
}

// ParseJSONB parses the raw JSONB perks into the typed struct. Must be called after DB scan.
func (p *Plan) ParseJSONB() {
	if len(p.PerksRaw) > 0 {
		_ = json.Unmarshal(p.PerksRaw, &p.Perks)
	}
}

// Subscription represents a user's meal plan subscription
type Subscription struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	UserID      uuid.UUID    `db:"user_id" json:"user_id"`
	PlanID      PlanID       `db:"plan_id" json:"plan_id"`
	StartedAt   time.Time    `db:"started_at" json:"started_at"`
	ExpiresAt   time.Time    `db:"expires_at" json:"expires_at"`
	Status      Status       `db:"status" json:"status"`
	CancelledAt sql.NullTime `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// IsExpired checks if the subscription has passed its expiry
func (s *Subscription) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
