// Package api provides the HTTP API for TransitDeck.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/transitdeck/transitdeck/internal/api/handler"
	"github.com/transitdeck/transitdeck/internal/api/middleware"
	"github.com/transitdeck/transitdeck/internal/auth"
	"github.com/transitdeck/transitdeck/internal/provider/resilience"
	"github.com/transitdeck/transitdeck/internal/transit"
	"github.com/transitdeck/transitdeck/internal/transit/mta"
	"github.com/transitdeck/transitdeck/internal/transit/wmata"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	AuthService *auth.Service

	// Transit is the city-to-adapter registry backing the contract routes.
	Transit *transit.Registry

	// Health tracks upstream circuit breaker state for the status endpoint.
	Health *resilience.Registry

	// DC and NYC expose the provider-specific extension endpoints. Either
	// may be nil, in which case its extension routes are not mounted.
	DC  *wmata.Client
	NYC *mta.Client
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "transitdeck-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Transit, cfg.Health)
	transitHandler := handler.NewTransitHandler(cfg.Transit)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			if cfg.AuthService != nil {
				r.With(middleware.Auth(cfg.AuthService)).Get("/status", opsHandler.SystemStatus)
			}
		})

		// City metadata (public) - standard rate limiting
		r.With(standardRateLimit).Get("/cities", transitHandler.ListCities)

		// Provider extension endpoints are mounted before the {city} tree:
		// chi prefers static segments, so anything under /dc or /nyc that is
		// not matched here must be repeated from the contract routes.
		if cfg.DC != nil {
			dcHandler := handler.NewDCHandler(cfg.DC)
			r.Route("/dc", func(r chi.Router) {
				r.Use(cityParam(transit.CityDC))
				r.With(expensiveRateLimit).Get("/train-positions", dcHandler.TrainPositions)
				r.With(standardRateLimit).Get("/elevator-incidents", dcHandler.ElevatorIncidents)
				r.Route("/bus", func(r chi.Router) {
					r.Use(standardRateLimit)
					r.Get("/stops", dcHandler.BusStopsNear)
					r.Get("/stops/{stopId}/predictions", dcHandler.BusPredictions)
					r.Get("/routes", dcHandler.BusRoutes)
					r.Get("/routes/{routeId}/positions", dcHandler.BusPositions)
				})
				mountCityRoutes(r, transitHandler, standardRateLimit, expensiveRateLimit)
			})
		}

		if cfg.NYC != nil {
			nycHandler := handler.NewNYCHandler(cfg.NYC)
			r.Route("/nyc", func(r chi.Router) {
				r.Use(cityParam(transit.CityNYC))
				r.With(standardRateLimit).Get("/stations/{stationId}/transfers", nycHandler.StationTransfers)
				mountCityRoutes(r, transitHandler, standardRateLimit, expensiveRateLimit)
			})
		}

		// Contract endpoints for any registered city
		r.Route("/{city}", func(r chi.Router) {
			mountCityRoutes(r, transitHandler, standardRateLimit, expensiveRateLimit)
		})
	})

	return r
}

// cityParam pins the {city} URL parameter for subtrees mounted under a
// static city prefix, so the contract handlers resolve the right adapter.
func cityParam(city transit.City) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				rctx.URLParams.Add("city", string(city))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// mountCityRoutes attaches the capability contract routes. The same set is
// mounted under /dc, /nyc, and the generic /{city} subtree because chi's
// static-segment priority would otherwise shadow them.
func mountCityRoutes(r chi.Router, h *handler.TransitHandler, standard, expensive func(http.Handler) http.Handler) {
	r.With(standard).Get("/stations", h.ListStations)
	r.With(standard).Get("/stations/search", h.SearchStations)
	r.With(expensive).Get("/stations/{stationId}/predictions", h.StationPredictions)
	r.With(standard).Get("/lines/{lineCode}/stations", h.StationsByLine)
	r.With(standard).Get("/incidents", h.Incidents)
	r.With(standard).Get("/routes/{routeId}", h.RouteInfo)
}
