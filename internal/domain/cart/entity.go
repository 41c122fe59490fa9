package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a cart line owned by a user. Menu item details are denormalized
// into the row at read time via a join.
type Item struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UserID     uuid.UUID `db:"user_id" json:"-"`
	MenuItemID uuid.UUID `db:"menu_item_id" json:"menu_item_id"`
	Quantity   int       `db:"quantity" json:"quantity"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`

	// Joined from menu_items
	ItemName    string          `db:"item_name" json:"item_name"`
	Price       decimal.Decimal `db:"price" json:"price"`
	PartnerID   uuid.UUID       `db:"partner_id" json:"partner_id"`
	IsAvailable bool            `db:"is_available" json:"is_available"`
}

// Subtotal returns price * quantity for the line.
func (i *Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Summary is the cart with its running total.
type Summary struct {
	Items []Item          `json:"items"`
	Total decimal.Decimal `json:"total"`
}
