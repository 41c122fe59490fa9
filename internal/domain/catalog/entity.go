package catalog

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhojan/bhojan-api/internal/domain/reward"
)

// Partner represents a food venue (restaurant, cafe, fast food outlet)
type Partner struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	OwnerUserID uuid.UUID       `db:"owner_user_id" json:"owner_user_id"`
	Name        string          `db:"name" json:"name"`
	Description sql.NullString  `db:"description" json:"description,omitempty"`
	Category    reward.Category `db:"category" json:"category"`
	Address     string          `db:"address" json:"address"`
	Phone       sql.NullString  `db:"phone" json:"phone,omitempty"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// MenuItem represents a dish on a partner's menu
type MenuItem struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	PartnerID    uuid.UUID       `db:"partner_id" json:"partner_id"`
	Name         string          `db:"name" json:"name"`
	Description  sql.NullString  `db:"description" json:"description,omitempty"`
	Price        decimal.Decimal `db:"price" json:"price"`
	ImageURL     sql.NullString  `db:"image_url" json:"image_url,omitempty"`
	ThumbnailURL sql.NullString  `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	IsAvailable  bool            `db:"is_available" json:"is_available"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// PartnerFilters controls partner listing
type PartnerFilters struct {
	Category *reward.Category
	Search   string
	Limit    int
	Offset   int
}
