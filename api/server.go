/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the admin frontend

ROUTE GROUPS:
  /api/accounts/*       Account and deposit operations
  /api/plans/*          Investment plan management
  /api/investments/*    Position operations
  /api/jobs/*           Scheduler control
  /api/accrual/*        Run trigger and history
  /api/admin/*          Operator dashboard
  /metrics              Prometheus scrape endpoint

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Account routes
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", h.CreateAccount)
			r.Get("/{id}", h.GetAccount)
			r.Get("/{id}/balance", h.GetAccount)
			r.Get("/{id}/entries", h.GetAccountEntries)
			r.Get("/{id}/investments", h.GetAccountInvestments)
			r.Post("/{id}/deposits", h.Deposit)
		})

		// Plan routes
		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.ListPlans)
			r.Post("/", h.CreatePlan)
		})

		// Investment routes
		r.Route("/investments", func(r chi.Router) {
			r.Post("/", h.OpenInvestment)
			r.Get("/{id}", h.GetInvestment)
			r.Get("/{id}/entries", h.GetInvestmentEntries)
		})

		// Scheduler control routes
		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.ListJobs)
			r.Post("/{name}/start", h.StartJob)
			r.Post("/{name}/stop", h.StopJob)
		})

		// Accrual run routes
		r.Route("/accrual", func(r chi.Router) {
			r.Post("/run", h.TriggerRun)
			r.Get("/runs", h.ListRuns)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Get("/dashboard", h.Dashboard)
		})
	})

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
