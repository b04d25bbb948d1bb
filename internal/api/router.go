package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/apicrud/user-api/docs"
	"github.com/apicrud/user-api/internal/api/handler"
	"github.com/apicrud/user-api/internal/api/middleware"
	"github.com/apicrud/user-api/internal/core/ports"
	"github.com/apicrud/user-api/internal/infrastructure/http/handlers"
)

const metricsSubsystem = "http"

// Dependencies is everything the HTTP layer needs from the composition root.
type Dependencies struct {
	Users     ports.UserService
	Auth      ports.AuthService
	Readiness map[string]handlers.PingFunc
	Log       zerolog.Logger
	// Registry receives the HTTP request metrics. A fresh registry is used
	// when nil; /metrics serves it together with the default gatherer.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.Validator = handler.NewValidator()

	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: registry,
	}))

	// --- Handlers ---
	userHandler := handler.NewUserHandler(deps.Users, deps.Log)
	adminHandler := handler.NewAdminHandler(deps.Users)
	tokenHandler := handler.NewTokenHandler(deps.Auth)
	auth := middleware.Auth(deps.Auth)
	adminOnly := middleware.RequireAdmin()

	// --- User routes ---
	e.POST("/api/user", userHandler.Register)
	e.GET("/api/user", userHandler.List, auth)
	e.GET("/api/user/profile", userHandler.Profile, auth)
	e.POST("/api/user/profile", userHandler.UpdateProfile, auth)
	e.GET("/api/user/:id", userHandler.Get, auth)
	e.PUT("/api/user/:id", userHandler.Update, auth)
	e.PATCH("/api/user/:id", userHandler.PartialUpdate, auth)

	// --- Admin routes ---
	admin := e.Group("/api/admin", auth, adminOnly)
	admin.GET("", adminHandler.List)
	admin.GET("/:id", adminHandler.Get)
	admin.PUT("/:id", adminHandler.Update)
	admin.PATCH("/:id", adminHandler.PartialUpdate)
	admin.DELETE("/:id", adminHandler.Delete)

	// --- Token routes ---
	e.POST("/api/token/", tokenHandler.Obtain)
	e.POST("/api/token", tokenHandler.Obtain)
	e.POST("/api/token/refresh/", tokenHandler.Refresh)
	e.POST("/api/token/refresh", tokenHandler.Refresh)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, registry},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog event per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Status >= 500 {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
