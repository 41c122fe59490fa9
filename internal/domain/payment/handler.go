package payment

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/bhojan/bhojan-api/internal/middleware"
	"github.com/bhojan/bhojan-api/internal/pkg/response"
)

// Handler handles payment HTTP requests
type Handler struct {
	repo Repository
}

// NewHandler creates payment handler
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// ListMy handles GET /payments
func (h *Handler) ListMy(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	payments, err := h.repo.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list payments")
		response.InternalError(w)
		return
	}

	response.OK(w, payments)
}
