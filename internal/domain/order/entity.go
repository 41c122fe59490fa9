package order

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhojan/bhojan-api/internal/domain/reward"
)

// Status represents order status (matches order_status enum)
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPaid       Status = "paid"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// CanTransitionTo reports whether the status change is allowed.
// pending → processing/cancelled, processing → paid/completed/cancelled,
// paid → completed/cancelled; completed and cancelled are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		return next == StatusPaid || next == StatusCompleted || next == StatusCancelled
	case StatusPaid:
		return next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Order represents a food order placed from a single partner's menu
type Order struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	UserID         uuid.UUID       `db:"user_id" json:"user_id"`
	PartnerID      uuid.UUID       `db:"partner_id" json:"partner_id"`
	Category       reward.Category `db:"category" json:"category"`
	Status         Status          `db:"status" json:"status"`
	Subtotal       decimal.Decimal `db:"subtotal" json:"subtotal"`
	DeliveryFee    decimal.Decimal `db:"delivery_fee" json:"delivery_fee"`
	Discount       decimal.Decimal `db:"discount" json:"discount"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	DeliveryNote   sql.NullString  `db:"delivery_note" json:"delivery_note,omitempty"`
	Address        string          `db:"address" json:"address"`
	IsConfirmed    bool            `db:"is_confirmed" json:"is_confirmed"`
	RewardsAwarded bool            `db:"rewards_awarded" json:"rewards_awarded"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`

	Items []Item `db:"-" json:"items,omitempty"`
}

// Item is an order line, priced at checkout time
type Item struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	OrderID    uuid.UUID       `db:"order_id" json:"-"`
	MenuItemID uuid.UUID       `db:"menu_item_id" json:"menu_item_id"`
	Name       string          `db:"name" json:"name"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unit_price"`
	Quantity   int             `db:"quantity" json:"quantity"`
}

// StatusEvent is published on the order feed whenever status changes
type StatusEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	UserID    uuid.UUID `json:"user_id"`
	PartnerID uuid.UUID `json:"partner_id"`
	Status    Status    `json:"status"`
	At        time.Time `json:"at"`
}
