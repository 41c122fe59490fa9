package reward

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns reward router. All routes require authentication;
// settings mutation additionally requires the admin role.
func Routes(handler *Handler, authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/balance", handler.Balance)
	r.Get("/transactions", handler.History)
	r.Delete("/transactions", handler.ClearHistory)
	r.Post("/redeem", handler.Redeem)
	r.Get("/settings", handler.GetSettings)

	r.Group(func(r chi.Router) {
		r.Use(adminMiddleware)
		r.Put("/settings", handler.UpdateSettings)
	})

	return r
}
