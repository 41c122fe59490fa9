package reward

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/bhojan/bhojan-api/internal/middleware"
	"github.com/bhojan/bhojan-api/internal/pkg/response"
	"github.com/bhojan/bhojan-api/internal/pkg/validator"
)

// Handler handles reward HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates reward handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Balance handles GET /rewards/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	ledger, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to get reward balance")
		response.InternalError(w)
		return
	}

	response.OK(w, ledger)
}

// History handles GET /rewards/transactions
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	transactions, err := h.service.History(r.Context(), userID, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list reward transactions")
		response.InternalError(w)
		return
	}

	response.OK(w, transactions)
}

// ClearHistory handles DELETE /rewards/transactions
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.service.ClearHistory(r.Context(), userID); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to clear reward history")
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

// Redeem handles POST /rewards/redeem
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	discount, err := h.service.Redeem(r.Context(), userID, req.Points, req.OrderID)
	if err != nil {
		switch err {
		case ErrInsufficientPoints:
			response.UnprocessableEntity(w, "INSUFFICIENT_POINTS", "Not enough points to redeem")
		case ErrInvalidRedemptionAmount:
			response.BadRequest(w, "Redemption amount is not allowed by current settings")
		case ErrSettingsNotFound:
			response.Conflict(w, "Reward program is not configured")
		default:
			log.Error().
				Err(err).
				Str("user_id", userID.String()).
				Int64("points", req.Points).
				Msg("failed to redeem points")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, RedeemResponse{
		PointsRedeemed: req.Points,
		DiscountAmount: discount,
	})
}

// GetSettings handles GET /rewards/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetSettings(r.Context())
	if err != nil {
		switch err {
		case ErrSettingsNotFound:
			response.NotFound(w, "Reward settings not configured")
		default:
			log.Error().Err(err).Msg("failed to get reward settings")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, settings)
}

// UpdateSettings handles PUT /rewards/settings (admin only)
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	settings, err := req.ToSettings()
	if err != nil {
		response.BadRequest(w, "Invalid reward settings")
		return
	}

	if err := h.service.UpdateSettings(r.Context(), settings); err != nil {
		switch err {
		case ErrInvalidSettings:
			response.BadRequest(w, "Invalid reward settings")
		default:
			log.Error().Err(err).Msg("failed to update reward settings")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, settings)
}
