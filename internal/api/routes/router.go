package routes

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Bookjiradech/CARCOM/internal/api/handlers"
	"github.com/Bookjiradech/CARCOM/internal/api/middleware"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	searchHandler  *handlers.SearchHandler
	packageHandler *handlers.PackageHandler
	healthHandler  *handlers.HealthHandler

	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// NewRouter creates a new router. cacheMiddleware may be nil.
func NewRouter(
	searchHandler *handlers.SearchHandler,
	packageHandler *handlers.PackageHandler,
	healthHandler *handlers.HealthHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		searchHandler:   searchHandler,
		packageHandler:  packageHandler,
		healthHandler:   healthHandler,
		cacheMiddleware: cacheMiddleware,
		allowedOrigins:  allowedOrigins,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Search sessions
	r.mux.HandleFunc("POST /api/searches", r.searchHandler.CreateSearch)
	r.mux.HandleFunc("GET /api/searches/{id}", r.searchHandler.GetSearch)
	r.mux.HandleFunc("POST /api/searches/{id}/refresh", r.searchHandler.RefreshSearch)
	r.mux.HandleFunc("GET /api/searches/{id}/pick", r.searchHandler.PickCar)

	// Packages
	r.mux.HandleFunc("GET /api/packages/{id}/price", r.packageHandler.GetPrice)
	r.mux.HandleFunc("POST /api/packages/{id}/trial", r.packageHandler.ActivateTrial)

	// Last applied wraps outermost.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache hits.
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return otelhttp.NewHandler(handler, "carcom-api")
}
