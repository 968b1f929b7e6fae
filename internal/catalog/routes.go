package catalog

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/salons/{salonID}/menu", h.Menu)
	r.Get("/salons/{salonID}/treatments", h.List)
	r.Post("/salons/{salonID}/treatments", h.Create)
	r.Put("/salons/{salonID}/treatments/{id}", h.Update)
	r.Delete("/salons/{salonID}/treatments/{id}", h.Deactivate)
}
