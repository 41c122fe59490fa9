package subscription

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/bhojan/bhojan-api/internal/middleware"
	"github.com/bhojan/bhojan-api/internal/pkg/response"
	"github.com/bhojan/bhojan-api/internal/pkg/validator"
)

// Handler handles subscription HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates subscription handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListPlans handles GET /subscriptions/plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListPlans(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list plans")
		response.InternalError(w)
		return
	}

	response.OK(w, plans)
}

// Subscribe handles POST /subscriptions
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	userID := middleware.GetUserID(r.Context())
	sub, err := h.service.Subscribe(r.Context(), userID, PlanID(req.PlanID))
	if err != nil {
		switch err {
		case ErrPlanNotFound:
			response.NotFound(w, "Plan not found")
		case ErrAlreadySubscribed:
			response.Conflict(w, "You already have an active subscription")
		default:
			log.Error().Err(err).Msg("failed to subscribe")
			response.InternalError(w)
		}
		return
	}

	response.Created(w, sub)
}

// Current handles GET /subscriptions/me
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sub, plan, err := h.service.Current(r.Context(), userID)
	if err != nil {
		if err == ErrNoActiveSubscription {
			response.NotFound(w, "No active subscription")
			return
		}
		log.Error().Err(err).Msg("failed to get subscription")
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{
		"subscription": sub,
		"plan":         plan,
	})
}

// Cancel handles DELETE /subscriptions/me
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.service.Cancel(r.Context(), userID); err != nil {
		if err == ErrNoActiveSubscription {
			response.NotFound(w, "No active subscription")
			return
		}
		log.Error().Err(err).Msg("failed to cancel subscription")
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}
