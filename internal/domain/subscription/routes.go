package subscription

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns subscription router
func Routes(handler *Handler, authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/plans", handler.ListPlans)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", handler.Subscribe)
		r.Get("/me", handler.Current)
		r.Delete("/me", handler.Cancel)
	})

	return r
}
