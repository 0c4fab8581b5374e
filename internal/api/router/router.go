// Package router wires every HTTP surface onto one chi mux.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/velvetrow/salon-platform/internal/booking"
	"github.com/velvetrow/salon-platform/internal/catalog"
	"github.com/velvetrow/salon-platform/internal/clients"
	"github.com/velvetrow/salon-platform/internal/connect"
	httpmiddleware "github.com/velvetrow/salon-platform/internal/http/middleware"
	"github.com/velvetrow/salon-platform/internal/identity"
	"github.com/velvetrow/salon-platform/internal/stylists"
	"github.com/velvetrow/salon-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger *logging.Logger

	AuthHandler     *identity.Handler
	ConnectHandler  *connect.Handler
	ClientsHandler  *clients.Handler
	StylistsHandler *stylists.Handler
	CatalogHandler  *catalog.Handler
	BookingHandler  *booking.Handler

	SessionSecret      string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AuthHandler != nil {
			public.Route("/auth", func(r chi.Router) {
				r.Post("/signup", cfg.AuthHandler.SignUp)
				r.Post("/signin", cfg.AuthHandler.SignIn)
			})
		}
		// OAuth callback (public, Square redirects here)
		if cfg.ConnectHandler != nil {
			public.Mount("/oauth", cfg.ConnectHandler.Routes())
		}
	})

	// Tenant-scoped API routes
	if cfg.SessionSecret != "" {
		r.Group(func(tenant chi.Router) {
			tenant.Use(httpmiddleware.TenantJWT(cfg.SessionSecret))

			if cfg.AuthHandler != nil {
				tenant.Get("/auth/me", cfg.AuthHandler.Me)
			}
			if cfg.ConnectHandler != nil {
				tenant.Mount("/connections", cfg.ConnectHandler.AuthedRoutes())
			}
			if cfg.ClientsHandler != nil {
				tenant.Route("/clients", func(r chi.Router) {
					r.Get("/", cfg.ClientsHandler.ListClients)
					r.Post("/", cfg.ClientsHandler.CreateClient)
				})
			}
			if cfg.StylistsHandler != nil {
				tenant.Route("/stylists", func(r chi.Router) {
					r.Get("/", cfg.StylistsHandler.ListStylists)
					r.Put("/{stylistID}/permissions", cfg.StylistsHandler.UpdatePermissions)
				})
			}
			if cfg.CatalogHandler != nil {
				tenant.Get("/services", cfg.CatalogHandler.ListServices)
			}
			if cfg.BookingHandler != nil {
				tenant.Route("/bookings", func(r chi.Router) {
					r.Get("/", cfg.BookingHandler.List)
					r.Post("/", cfg.BookingHandler.Create)
					r.Post("/availability", cfg.BookingHandler.SearchSlots)
				})
			}
		})
	}

	return r
}
