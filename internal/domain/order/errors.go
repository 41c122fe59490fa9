package order

import "errors"

var (
	ErrOrderNotFound             = errors.New("order not found")
	ErrAlreadyConfirmed          = errors.New("order already confirmed")
	ErrInvalidTransition         = errors.New("invalid order status transition")
	ErrEmptyCart                 = errors.New("cart is empty")
	ErrMixedPartners             = errors.New("cart contains items from multiple partners")
	ErrItemUnavailable           = errors.New("cart contains unavailable items")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrPaymentNotFound           = errors.New("no completed payment for order")
	ErrRefundFailed              = errors.New("refund failed")
)
