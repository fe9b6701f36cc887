package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all analytics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/comparison", h.HandleComparison)
		r.Get("/expectation", h.HandleExpectation)
	})

	r.Get("/holdings", h.HandleHoldings)
}
