package appointments

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/appointments", h.List)
	r.Get("/appointments/dashboard", h.Dashboard)
	r.Get("/appointments/{id}", h.Show)
	r.Post("/appointments", h.Book)
	r.Post("/appointments/{id}/confirm", h.Confirm)
	r.Post("/appointments/{id}/cancel", h.Cancel)
	r.Post("/appointments/{id}/complete", h.Complete)
}
