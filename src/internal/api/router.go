package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new HTTP router with all API endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(Recovery)
	r.Use(Logger)
	r.Use(PrivateSubnetOnly)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.GetStatus)
		r.Get("/primary", h.GetPrimary)
		r.Get("/election", h.GetElection)
		r.Get("/routes", h.GetRoutes)
		r.Get("/resolvers", h.GetResolvers)
		r.Get("/nwi", h.GetNWI)
		r.Get("/interfaces", h.GetInterfaces)
		r.Get("/health", h.CheckHealth)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
