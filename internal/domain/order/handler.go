package order

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bhojan/bhojan-api/internal/domain/reward"
	"github.com/bhojan/bhojan-api/internal/domain/user"
	"github.com/bhojan/bhojan-api/internal/middleware"
	"github.com/bhojan/bhojan-api/internal/pkg/response"
	"github.com/bhojan/bhojan-api/internal/pkg/validator"
)

// Handler handles order HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates order handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Checkout handles POST /orders
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	userID := middleware.GetUserID(r.Context())
	o, err := h.service.Checkout(r.Context(), userID, CheckoutInput{
		Address:      req.Address,
		DeliveryNote: req.DeliveryNote,
		RedeemPoints: req.RedeemPoints,
	})
	if err != nil {
		switch err {
		case ErrEmptyCart:
			response.BadRequest(w, "Cart is empty")
		case ErrMixedPartners:
			response.UnprocessableEntity(w, "MIXED_PARTNERS", "Order items must come from a single venue")
		case ErrItemUnavailable:
			response.Conflict(w, "Some cart items are no longer available")
		case reward.ErrInsufficientPoints:
			response.UnprocessableEntity(w, "INSUFFICIENT_POINTS", "Not enough points to redeem")
		case reward.ErrInvalidRedemptionAmount:
			response.BadRequest(w, "Redemption amount is not allowed by current settings")
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("checkout failed")
			response.InternalError(w)
		}
		return
	}

	response.Created(w, o)
}

// ListMy handles GET /orders
func (h *Handler) ListMy(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.service.ListMy(r.Context(), userID, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list orders")
		response.InternalError(w)
		return
	}

	response.OK(w, orders)
}

// ListForPartner handles GET /orders/partner
func (h *Handler) ListForPartner(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.service.ListForPartner(r.Context(), userID, limit, offset)
	if err != nil {
		if err == ErrOrderNotFound {
			response.NotFound(w, "You have no registered venue")
			return
		}
		log.Error().Err(err).Msg("failed to list partner orders")
		response.InternalError(w)
		return
	}

	response.OK(w, orders)
}

// Get handles GET /orders/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid order ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	isAdmin := middleware.GetRole(r.Context()) == string(user.RoleAdmin)

	o, err := h.service.Get(r.Context(), orderID, userID, isAdmin)
	if err != nil {
		if err == ErrOrderNotFound {
			response.NotFound(w, "Order not found")
			return
		}
		log.Error().Err(err).Msg("failed to get order")
		response.InternalError(w)
		return
	}

	response.OK(w, o)
}

// Confirm handles POST /orders/{id}/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid order ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	o, err := h.service.Confirm(r.Context(), orderID, userID)
	if err != nil {
		switch err {
		case ErrOrderNotFound:
			response.NotFound(w, "Order not found")
		case ErrAlreadyConfirmed:
			response.Conflict(w, "Order is already confirmed")
		case ErrInvalidTransition:
			response.Conflict(w, "Order cannot be confirmed in its current state")
		default:
			log.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to confirm order")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, o)
}

// Complete handles POST /orders/{id}/complete
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid order ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	o, earned, err := h.service.Complete(r.Context(), orderID, userID)
	if err != nil {
		switch err {
		case ErrOrderNotFound:
			response.NotFound(w, "Order not found")
		case ErrInvalidTransition:
			response.Conflict(w, "Order cannot be completed in its current state")
		default:
			log.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to complete order")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, CompleteResponse{Order: o, PointsAwarded: earned})
}

// Cancel handles POST /orders/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid order ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	o, err := h.service.Cancel(r.Context(), orderID, userID)
	if err != nil {
		switch err {
		case ErrOrderNotFound:
			response.NotFound(w, "Order not found")
		case ErrInvalidTransition:
			response.Conflict(w, "Completed or cancelled orders cannot be cancelled")
		default:
			log.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to cancel order")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, o)
}

// VerifyPayment handles POST /orders/{id}/pay
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid order ID")
		return
	}

	var req VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	userID := middleware.GetUserID(r.Context())
	pay, err := h.service.VerifyPayment(r.Context(), orderID, userID, req.Token)
	if err != nil {
		switch err {
		case ErrOrderNotFound:
			response.NotFound(w, "Order not found")
		case ErrAlreadyConfirmed:
			response.Conflict(w, "Order is already paid")
		case ErrInvalidTransition:
			response.Conflict(w, "Order cannot be paid in its current state")
		case ErrPaymentVerificationFailed:
			response.PaymentRequired(w, "PAYMENT_VERIFICATION_FAILED", "Payment could not be verified")
		default:
			log.Error().Err(err).Str("order_id", orderID.String()).Msg("payment verification errored")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, pay)
}

// Refund handles POST /orders/{id}/refund
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid order ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	isAdmin := middleware.GetRole(r.Context()) == string(user.RoleAdmin)

	if err := h.service.Refund(r.Context(), orderID, userID, isAdmin); err != nil {
		switch err {
		case ErrOrderNotFound:
			response.NotFound(w, "Order not found")
		case ErrPaymentNotFound:
			response.Conflict(w, "Order has no completed payment to refund")
		case ErrRefundFailed:
			response.UnprocessableEntity(w, "REFUND_FAILED", "Gateway rejected the refund")
		default:
			log.Error().Err(err).Str("order_id", orderID.String()).Msg("refund errored")
			response.InternalError(w)
		}
		return
	}

	response.NoContent(w)
}
