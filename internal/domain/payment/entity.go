package payment

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents payment record status
type Status string

const (
	StatusPaid     Status = "paid"
	StatusRefunded Status = "refunded"
)

// Provider identifies the payment gateway
type Provider string

const ProviderKhalti Provider = "khalti"

// Payment is a record of a verified gateway transaction for an order.
// Amount is stored in currency units; the gateway itself deals in paisa.
type Payment struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	OrderID     uuid.UUID       `db:"order_id" json:"order_id"`
	UserID      uuid.UUID       `db:"user_id" json:"user_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Provider    Provider        `db:"provider" json:"provider"`
	ReferenceID string          `db:"reference_id" json:"reference_id"`
	Status      Status          `db:"status" json:"status"`
	RefundedAt  sql.NullTime    `db:"refunded_at" json:"refunded_at,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
