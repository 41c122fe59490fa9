package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns cart router. All routes require authentication.
func Routes(handler *Handler, authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", handler.Get)
	r.Delete("/", handler.Clear)
	r.Post("/items", handler.AddItem)
	r.Patch("/items/{id}", handler.UpdateQuantity)
	r.Delete("/items/{id}", handler.RemoveItem)

	return r
}
