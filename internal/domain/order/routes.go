package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns order router. All routes require authentication; the partner
// listing additionally requires the partner role.
func Routes(handler *Handler, feed *Feed, authMiddleware, partnerMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", handler.Checkout)
	r.Get("/", handler.ListMy)
	r.Get("/feed", feed.ServeWS)
	r.Get("/{id}", handler.Get)
	r.Post("/{id}/confirm", handler.Confirm)
	r.Post("/{id}/complete", handler.Complete)
	r.Post("/{id}/cancel", handler.Cancel)
	r.Post("/{id}/pay", handler.VerifyPayment)
	r.Post("/{id}/refund", handler.Refund)

	r.Group(func(r chi.Router) {
		r.Use(partnerMiddleware)
		r.Get("/partner", handler.ListForPartner)
	})

	return r
}
