package catalog

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
	"github.com/bhojan/bhojan-api/internal/pkg/imaging"
	"github.com/bhojan/bhojan-api/internal/pkg/response"
	"github.com/bhojan/bhojan-api/internal/pkg/validator"
)

// Handler handles catalog HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates catalog handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListPartners handles GET /partners
func (h *Handler) ListPartners(w http.ResponseWriter, r *http.Request) {
	filters := PartnerFilters{
		Search: r.URL.Query().Get("search"),
	}
	filters.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filters.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	if category := r.URL.Query().Get("category"); category != "" {
		if !reward.IsValidCategory(category) {
			response.BadRequest(w, "Invalid category")
			return
		}
		c := reward.Category(category)
		filters.Category = &c
	}

	partners, err := h.service.ListPartners(r.Context(), filters)
	if err != nil {
		log.Error().Err(err).Msg("failed to list partners")
		response.InternalError(w)
		return
	}

	response.OK(w, partners)
}

// GetPartner handles GET /partners/{id}
func (h *Handler) GetPartner(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid partner ID")
		return
	}

	p, err := h.service.GetPartner(r.Context(), id)
	if err != nil {
		if err == ErrPartnerNotFound {
			response.NotFound(w, "Partner not found")
			return
		}
		log.Error().Err(err).Msg("failed to get partner")
		response.InternalError(w)
		return
	}

	response.OK(w, p)
}

// CreatePartner handles POST /partners
func (h *Handler) CreatePartner(w http.ResponseWriter, r *http.Request) {
	var req CreatePartnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	userID := middleware.GetUserID(r.Context())
	p, err := h.service.CreatePartner(r.Context(), userID, &req)
	if err != nil {
		switch err {
		case ErrPartnerExists:
			response.Conflict(w, "You already have a registered venue")
		default:
			log.Error().Err(err).Msg("failed to create partner")
			response.InternalError(w)
		}
		return
	}

	response.Created(w, p)
}

// GetOwnPartner handles GET /partners/me
func (h *Handler) GetOwnPartner(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	p, err := h.service.GetOwnPartner(r.Context(), userID)
	if err != nil {
		if err == ErrPartnerNotFound {
			response.NotFound(w, "You have no registered venue")
			return
		}
		log.Error().Err(err).Msg("failed to get own partner")
		response.InternalError(w)
		return
	}

	response.OK(w, p)
}

// UpdatePartner handles PUT /partners/{id}
func (h *Handler) UpdatePartner(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid partner ID")
		return
	}

	var req UpdatePartnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	userID := middleware.GetUserID(r.Context())
	isAdmin := middleware.GetRole(r.Context()) == string(user.RoleAdmin)

	p, err := h.service.UpdatePartner(r.Context(), userID, id, isAdmin, &req)
	if err != nil {
		switch err {
		case ErrPartnerNotFound:
			response.NotFound(w, "Partner not found")
		case ErrNotPartnerOwner:
			response.Forbidden(w, "You can only manage your own venue")
		default:
			log.Error().Err(err).Msg("failed to update partner")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, p)
}

// DeletePartner handles DELETE /partners/{id} (admin only)
func (h *Handler) DeletePartner(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid partner ID")
		return
	}

	if err := h.service.DeletePartner(r.Context(), id); err != nil {
		if err == ErrPartnerNotFound {
			response.NotFound(w, "Partner not found")
			return
		}
		log.Error().Err(err).Msg("failed to delete partner")
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

// ListMenuItems handles GET /partners/{id}/items
func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	partnerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid partner ID")
		return
	}

	items, err := h.service.ListMenuItems(r.Context(), partnerID)
	if err != nil {
		if err == ErrPartnerNotFound {
			response.NotFound(w, "Partner not found")
			return
		}
		log.Error().Err(err).Msg("failed to list menu items")
		response.InternalError(w)
		return
	}

	response.OK(w, items)
}

// CreateMenuItem handles POST /partners/{id}/items
func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	partnerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid partner ID")
		return
	}

	var req CreateMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	userID := middleware.GetUserID(r.Context())
	isAdmin := middleware.GetRole(r.Context()) == string(user.RoleAdmin)

	item, err := h.service.CreateMenuItem(r.Context(), userID, partnerID, isAdmin, &req)
	if err != nil {
		switch err {
		case ErrPartnerNotFound:
			response.NotFound(w, "Partner not found")
		case ErrNotPartnerOwner:
			response.Forbidden(w, "You can only manage your own venue")
		default:
			log.Error().Err(err).Msg("failed to create menu item")
			response.InternalError(w)
		}
		return
	}

	response.Created(w, item)
}

// GetMenuItem handles GET /items/{id}
func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid item ID")
		return
	}

	item, err := h.service.GetMenuItem(r.Context(), id)
	if err != nil {
		if err == ErrMenuItemNotFound {
			response.NotFound(w, "Menu item not found")
			return
		}
		log.Error().Err(err).Msg("failed to get menu item")
		response.InternalError(w)
		return
	}

	response.OK(w, item)
}

// UpdateMenuItem handles PUT /items/{id}
func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid item ID")
		return
	}

	var req UpdateMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	userID := middleware.GetUserID(r.Context())
	isAdmin := middleware.GetRole(r.Context()) == string(user.RoleAdmin)

	item, err := h.service.UpdateMenuItem(r.Context(), userID, id, isAdmin, &req)
	if err != nil {
		switch err {
		case ErrMenuItemNotFound:
			response.NotFound(w, "Menu item not found")
		case ErrNotPartnerOwner:
			response.Forbidden(w, "You can only manage your own venue")
		default:
			log.Error().Err(err).Msg("failed to update menu item")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, item)
}

// DeleteMenuItem handles DELETE /items/{id}
func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid item ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	isAdmin := middleware.GetRole(r.Context()) == string(user.RoleAdmin)

	if err := h.service.DeleteMenuItem(r.Context(), userID, id, isAdmin); err != nil {
		switch err {
		case ErrMenuItemNotFound:
			response.NotFound(w, "Menu item not found")
		case ErrNotPartnerOwner:
			response.Forbidden(w, "You can only manage your own venue")
		default:
			log.Error().Err(err).Msg("failed to delete menu item")
			response.InternalError(w)
		}
		return
	}

	response.NoContent(w)
}

// UploadItemImage handles POST /items/{id}/image (multipart/form-data)
func (h *Handler) UploadItemImage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid item ID")
		return
	}

	if err := r.ParseMultipartForm(imaging.MaxFileSize); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		response.BadRequest(w, "Missing image file")
		return
	}
	defer file.Close()

	userID := middleware.GetUserID(r.Context())
	isAdmin := middleware.GetRole(r.Context()) == string(user.RoleAdmin)

	item, err := h.service.UploadMenuItemImage(r.Context(), userID, id, isAdmin, header.Filename, file, header.Size)
	if err != nil {
		switch err {
		case ErrMenuItemNotFound:
			response.NotFound(w, "Menu item not found")
		case ErrNotPartnerOwner:
			response.Forbidden(w, "You can only manage your own venue")
		case ErrImageTooLarge:
			response.BadRequest(w, "Image exceeds the 5MB limit")
		case ErrInvalidImage:
			response.BadRequest(w, "File is not a supported image")
		default:
			log.Error().Err(err).Str("item_id", id.String()).Msg("failed to upload menu item image")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, item)
}
