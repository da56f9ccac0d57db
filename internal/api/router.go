package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/labdesk/identity/docs"
	"github.com/labdesk/identity/internal/api/handler"
	"github.com/labdesk/identity/internal/api/middleware"
	"github.com/labdesk/identity/internal/core/domain"
	"github.com/labdesk/identity/internal/core/ports"
)

// Deps holds everything the router mounts.
type Deps struct {
	Auth          ports.AuthService
	Impersonation ports.ImpersonationService
	Issuer        ports.ImpersonationIssuer
	Tokens        middleware.TokenVerifier
	Health        []handler.Dependency
	Log           zerolog.Logger

	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	metricsMiddleware, metricsHandler := httpMetrics(d.Registry)
	e.Use(metricsMiddleware)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	sessionHandler := handler.NewSessionHandler(d.Auth)
	impersonationHandler := handler.NewImpersonationHandler(d.Impersonation, d.Auth)
	functionsHandler := handler.NewFunctionsHandler(d.Issuer)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/sign-in", authHandler.SignIn, middleware.SessionScope(true))
	e.POST("/auth/sign-out", authHandler.SignOut, middleware.SessionScope(false))

	// --- Session routes (scoped by X-Session-ID) ---
	v1 := e.Group("/v1", middleware.SessionScope(false))
	v1.GET("/session", sessionHandler.Session)
	v1.GET("/session/stages/:stage", sessionHandler.StageAccess)
	v1.PUT("/profile", sessionHandler.UpdateProfile)
	v1.POST("/impersonation", impersonationHandler.Start)
	v1.DELETE("/impersonation", impersonationHandler.End)

	// --- Impersonation functions (admin bearer token) ---
	fn := e.Group("/functions", middleware.Auth(d.Tokens), middleware.RBAC(domain.RoleAdmin))
	fn.POST("/impersonate-user", functionsHandler.ImpersonateUser)
	fn.POST("/end-impersonation", functionsHandler.EndImpersonation)

	// --- Health checks (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Health...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	e.GET("/metrics", metricsHandler)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func httpMetrics(reg *prometheus.Registry) (echo.MiddlewareFunc, echo.HandlerFunc) {
	if reg == nil {
		return echoprometheus.NewMiddleware("identity"), echoprometheus.NewHandler()
	}
	mw := echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "identity",
		Registerer: reg,
	})
	return mw, echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
