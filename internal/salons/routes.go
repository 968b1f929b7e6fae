package salons

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/salons", h.List)
	r.Get("/salons/{id}", h.Show)
	r.Put("/salons/{id}", h.Update)
}
