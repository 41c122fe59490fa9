package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns catalog router. Listing and detail are public; mutations
// require a partner (or admin) principal.
func Routes(handler *Handler, authMiddleware, partnerMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// Public browsing
	r.Get("/partners", handler.ListPartners)
	r.Get("/partners/{id}", handler.GetPartner)
	r.Get("/partners/{id}/items", handler.ListMenuItems)
	r.Get("/items/{id}", handler.GetMenuItem)

	// Partner management
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware, partnerMiddleware)
		r.Post("/partners", handler.CreatePartner)
		r.Get("/partners/me", handler.GetOwnPartner)
		r.Put("/partners/{id}", handler.UpdatePartner)
		r.Post("/partners/{id}/items", handler.CreateMenuItem)
		r.Put("/items/{id}", handler.UpdateMenuItem)
		r.Delete("/items/{id}", handler.DeleteMenuItem)
		r.Post("/items/{id}/image", handler.UploadItemImage)
	})

	// Admin
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware, adminMiddleware)
		r.Delete("/partners/{id}", handler.DeletePartner)
	})

	return r
}
