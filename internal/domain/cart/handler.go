package cart

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bhojan/bhojan-api/internal/middleware"
	"github.com/bhojan/bhojan-api/internal/pkg/response"
	"github.com/bhojan/bhojan-api/internal/pkg/validator"
)

// Handler handles cart HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates cart handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Get handles GET /cart
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	summary, err := h.service.Get(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to get cart")
		response.InternalError(w)
		return
	}

	response.OK(w, summary)
}

// AddItem handles POST /cart/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	userID := middleware.GetUserID(r.Context())
	summary, err := h.service.AddItem(r.Context(), userID, req.MenuItemID, req.Quantity)
	if err != nil {
		switch err {
		case ErrMenuItemNotFound:
			response.NotFound(w, "Menu item not found")
		case ErrItemUnavailable:
			response.Conflict(w, "Menu item is currently unavailable")
		case ErrInvalidQuantity:
			response.BadRequest(w, "Invalid quantity")
		default:
			log.Error().Err(err).Msg("failed to add cart item")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, summary)
}

// UpdateQuantity handles PATCH /cart/items/{id}
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid cart item ID")
		return
	}

	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	userID := middleware.GetUserID(r.Context())
	summary, err := h.service.UpdateQuantity(r.Context(), userID, itemID, req.Quantity)
	if err != nil {
		switch err {
		case ErrItemNotFound:
			response.NotFound(w, "Cart item not found")
		case ErrInvalidQuantity:
			response.BadRequest(w, "Invalid quantity")
		default:
			log.Error().Err(err).Msg("failed to update cart item")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, summary)
}

// RemoveItem handles DELETE /cart/items/{id}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid cart item ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	summary, err := h.service.RemoveItem(r.Context(), userID, itemID)
	if err != nil {
		switch err {
		case ErrItemNotFound:
			response.NotFound(w, "Cart item not found")
		default:
			log.Error().Err(err).Msg("failed to remove cart item")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, summary)
}

// Clear handles DELETE /cart
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.service.Clear(r.Context(), userID); err != nil {
		log.Error().Err(err).Msg("failed to clear cart")
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}
