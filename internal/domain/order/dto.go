package order

import "github.com/bhojan/bhojan-api/internal/domain/reward"

// CheckoutRequest for POST /orders
type CheckoutRequest struct {
	Address      string `json:"address" validate:"required,min=5,max=255"`
	DeliveryNote string `json:"delivery_note" validate:"omitempty,max=500"`
	RedeemPoints int64  `json:"redeem_points" validate:"gte=0"`
}

// VerifyPaymentRequest for POST /orders/{id}/pay
type VerifyPaymentRequest struct {
	Token string `json:"token" validate:"required"`
}

// CompleteResponse returned by POST /orders/{id}/complete
type CompleteResponse struct {
	Order         *Order              `json:"order"`
	PointsAwarded reward.EarnedPoints `json:"points_awarded"`
}
