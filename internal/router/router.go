package router

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"shopsy/internal/handlers"
	"shopsy/internal/middleware"
	"shopsy/internal/services"
)

type Services struct {
	DB       handlers.Pinger
	Users    *services.UserService
	Auth     *services.AuthService
	Stats    *services.StatsService
	Products *services.ProductService
}

type Options struct {
	RequestTimeout time.Duration
	// RateLimit <= 0 disables rate limiting.
	RateLimit   float64
	RateBurst   int
	CORSOrigins []string
	SlowRequest time.Duration
}

func SetupRouter(svc Services, opts Options, logger zerolog.Logger) http.Handler {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Auth, logger)
	adminHandler := handlers.NewAdminHandler(svc.Stats, svc.Users, logger)
	productHandler := handlers.NewProductHandler(svc.Products, logger)
	healthHandler := handlers.NewHealthHandler(svc.DB, logger)

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	rateLimiter := middleware.NewRateLimiter(limit, opts.RateBurst)

	slow := opts.SlowRequest
	if slow <= 0 {
		slow = time.Second
	}

	r := mux.NewRouter()

	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.ErrorHandling(logger))
	r.Use(middleware.PerformanceMonitoring(logger, slow))
	r.Use(middleware.SecurityHeaders())
	r.Use(rateLimiter.Middleware())
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	authenticate := middleware.Authentication(svc.Auth, logger)

	api := r.PathPrefix("/api/v1").Subrouter()

	auth := api.PathPrefix("/auth").Subrouter()
	auth.Use(middleware.RequestValidation())
	auth.HandleFunc("/register", authHandler.Register).Methods("POST")
	auth.HandleFunc("/login", authHandler.Login).Methods("POST")

	protectedAuth := auth.PathPrefix("").Subrouter()
	protectedAuth.Use(authenticate)
	protectedAuth.HandleFunc("/me", authHandler.Me).Methods("GET")

	api.HandleFunc("/products", productHandler.List).Methods("GET")

	// The admin routes are also served without the /api/v1 prefix, where
	// existing dashboards call them.
	for _, admin := range []*mux.Router{
		api.PathPrefix("/admin").Subrouter(),
		r.PathPrefix("/admin").Subrouter(),
	} {
		admin.Use(authenticate)
		admin.Use(middleware.RequireAdmin(logger))
		admin.Use(middleware.RequestValidation())
		admin.HandleFunc("/stats", adminHandler.Stats).Methods("GET")
		admin.HandleFunc("/create-admin", adminHandler.CreateAdmin).Methods("POST")
	}

	r.HandleFunc("/health", healthHandler.Health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// CORS wraps the router so preflight requests are answered even though
	// no OPTIONS routes are registered.
	return middleware.CORS(opts.CORSOrigins)(r)
}
