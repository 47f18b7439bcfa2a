package http

import (
	"net/http"

	"github.com/danielags/usuario-api/internal/auth"
	"github.com/danielags/usuario-api/internal/cep"
	"github.com/danielags/usuario-api/internal/config"
	"github.com/danielags/usuario-api/internal/httputil"
	"github.com/danielags/usuario-api/internal/logging"
	"github.com/danielags/usuario-api/internal/metrics"
	"github.com/danielags/usuario-api/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	userHandler *user.Handler,
	cepHandler *cep.Handler,
	authMiddleware *auth.Middleware,
	collector *metrics.Collector,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(collector.Middleware)          // Prometheus request metrics
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth)
	r.Handle("/metrics", collector.Handler())
	r.Get("/cep/{cep}", cepHandler.Lookup)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.Register)
		r.Post("/login", userHandler.Login)

		// Everything below requires a bearer token
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireToken)
			r.Get("/", userHandler.GetByEmail)
			r.Put("/", userHandler.UpdateProfile)
			r.Delete("/{email}", userHandler.Delete)
			r.Post("/addresses", userHandler.RegisterAddress)
			r.Put("/addresses", userHandler.UpdateAddress)
			r.Post("/phones", userHandler.RegisterPhone)
			r.Put("/phones", userHandler.UpdatePhone)
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
