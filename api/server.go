/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. CORS:       Cross-origin requests for the browser pages
  2. RequestID:  Unique ID per request for tracing
  3. Logger:     httplog request logging, ECS schema
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. Metrics:    Per-route counters and latency (when enabled)

ROUTE GROUPS:
  /api/login            Public
  /api/*                Any logged-in session
  /api/admin/*          Admin session only
  /metrics              Prometheus scrape endpoint
  /healthz              Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - session.go:  Bearer token checks
*/
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// MetricsProvider is the slice of the metrics manager the router mounts.
type MetricsProvider interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

type RouterOptions struct {
	AllowedOrigins []string
	AccessLog      *slog.Logger    // nil disables request logging
	LogLevel       slog.Level      // minimum level for request logs
	Metrics        MetricsProvider // nil disables /metrics
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	if opts.AccessLog != nil {
		r.Use(httplog.RequestLogger(opts.AccessLog, &httplog.Options{
			Level:  opts.LogLevel,
			Schema: httplog.SchemaECS,
		}))
	}
	r.Use(middleware.CleanPath)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireSession)

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.ListEmployees)
				r.Get("/{id}/summer-usage", h.GetSummerUsage)
			})

			r.Route("/requests", func(r chi.Router) {
				r.Get("/", h.ListRequests)
				r.Post("/", h.SubmitRequest)
			})

			r.Route("/shifts", func(r chi.Router) {
				r.Get("/", h.ListShifts)
				r.Post("/", h.CreateShift)
				r.Delete("/{id}", h.DeleteShift)
			})

			r.Route("/maintenance", func(r chi.Router) {
				r.Get("/", h.ListMaintenance)
				r.Post("/", h.CreateMaintenance)
				r.Delete("/{id}", h.DeleteMaintenance)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Get("/totals", h.GetTotals)
				r.Get("/totals.csv", h.ExportTotalsCSV)
				r.Get("/totals.pdf", h.ExportTotalsPDF)
				r.Get("/requests.csv", h.ExportRequestsCSV)
				r.Post("/roster/sync", h.SyncRoster)
			})
		})
	})

	return r
}
