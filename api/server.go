/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. httplog:    Structured request logging (ECS schema, slog)
  4. Metrics:    Request counters for /metrics
  5. CORS:       Cross-origin requests for frontend
  6. Auth:       Bearer token check on /api/* (except login), when enabled

ROUTE GROUPS:
  /health, /metrics     Service endpoints, never authenticated
  /api/auth/login       Token issue
  /api/employees/*      Employee management
  /api/timesheets       Timesheet submission
  /api/payruns/*        Pay-run generation and history
  /api/payslips/*       Payslips (JSON and PDF)
  /api/scenarios/*      Demo scenarios

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Token middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httplog.RequestLogger(h.Logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(h.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)
	r.Get("/metrics", h.GetMetrics)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			if h.Auth != nil {
				r.Use(h.Auth.Middleware)
			}

			// Employee routes
			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.ListEmployees)
				r.Post("/", h.CreateEmployee)
				r.Get("/{id}", h.GetEmployee)
				r.Get("/{id}/timesheets", h.ListEmployeeTimesheets)
			})

			r.Post("/timesheets", h.SubmitTimesheet)

			// Pay-run routes
			r.Route("/payruns", func(r chi.Router) {
				r.Get("/", h.ListPayRuns)
				r.Post("/", h.CreatePayRun)
				r.Get("/{id}", h.GetPayRun)
			})

			// Payslip routes
			r.Route("/payslips/{employeeId}/{payRunId}", func(r chi.Router) {
				r.Get("/", h.GetPayslip)
				r.Get("/pdf", h.GetPayslipPDF)
			})

			// Scenario routes
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
				r.Post("/reset", h.ResetDatabase)
			})
		})
	})

	return r
}
