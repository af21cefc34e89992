package api

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/99minutos/user-auth-service/docs"
	"github.com/99minutos/user-auth-service/internal/api/handler"
	"github.com/99minutos/user-auth-service/internal/api/metrics"
	"github.com/99minutos/user-auth-service/internal/api/middleware"
	"github.com/99minutos/user-auth-service/internal/core/domain"
	"github.com/99minutos/user-auth-service/internal/core/ports"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Auth   ports.AuthService
	Users  ports.UserService
	Tokens ports.TokenService
	// Health lists the dependencies checked by the readiness probe.
	Health map[string]handler.Pinger
	// Registry backs both the HTTP metrics middleware and GET /metrics.
	// A fresh registry is used when nil.
	Registry *prometheus.Registry
	Logger   zerolog.Logger
	// LoginRateLimit is the per-IP rate for POST /auth/token in requests per
	// second. Zero disables limiting.
	LoginRateLimit float64
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}
	m := metrics.New(d.Registry)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:                 "user_auth",
		Registerer:                d.Registry,
		DoNotUseRequestPathFor404: true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	e.Use(middleware.AccessControl(middleware.AccessControlConfig{
		PublicRoutes: middleware.DefaultPublicRoutes,
		Tokens:       d.Tokens,
		Metrics:      m,
		Logger:       d.Logger,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, m)
	userHandler := handler.NewUserHandler(d.Users, m)
	healthHandler := handler.NewHealthHandler(d.Health)
	adminOnly := middleware.RequireRole(m, domain.RoleAdmin)

	// --- Auth routes ---
	e.POST("/auth/token", authHandler.Token, loginLimiter(d.LoginRateLimit)...)
	e.POST("/auth/introspect", authHandler.Introspect)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.POST("/auth/logout", authHandler.Logout)

	// --- User routes ---
	e.POST("/users", userHandler.Register)
	e.GET("/users", userHandler.List, adminOnly)
	e.GET("/users/me", userHandler.Me)
	e.GET("/users/:id", userHandler.Get)
	e.PUT("/users/:id", userHandler.Update)

	// --- Operational routes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Registry}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// loginLimiter throttles credential guessing per client IP.
func loginLimiter(perSecond float64) []echo.MiddlewareFunc {
	if perSecond <= 0 {
		return nil
	}

	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     int(math.Ceil(perSecond)),
		ExpiresIn: 3 * time.Minute,
	})

	return []echo.MiddlewareFunc{echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
		},
	})}
}
