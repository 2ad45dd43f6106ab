package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/sirpyerre/chat-system/docs"
	"github.com/sirpyerre/chat-system/internal/api/handler"
	"github.com/sirpyerre/chat-system/internal/api/middleware"
	"github.com/sirpyerre/chat-system/internal/core/ports"
	"github.com/sirpyerre/chat-system/internal/infrastructure/http/handlers"
	"github.com/sirpyerre/chat-system/internal/realtime"
)

// Base64 inflates a 10 MiB image to roughly 13.4 MB.
const bodyLimit = "15M"

// Dependencies groups everything the HTTP surface needs.
type Dependencies struct {
	Auth     ports.AuthService
	Messages ports.MessageService
	Hub      *realtime.Hub

	// Readiness probes served on /health/ready.
	Readiness []handlers.NamedCheck

	AllowedOrigins []string
	SecureCookies  bool

	// MetricsRegistry receives the HTTP collectors and backs /metrics.
	// Nil means the Prometheus default registry.
	MetricsRegistry *prometheus.Registry

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.MetricsRegistry != nil {
		registerer, gatherer = deps.MetricsRegistry, deps.MetricsRegistry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     corsOrigins(deps.AllowedOrigins),
		AllowCredentials: true,
		// A wildcard reflects the caller's origin; browsers refuse "*" with credentials.
		UnsafeWildcardOriginWithAllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.SecureCookies)
	messageHandler := handler.NewMessageHandler(deps.Messages)
	wsHandler := handler.NewWSHandler(deps.Hub, deps.AllowedOrigins, deps.Log.With().Str("component", "ws").Logger())
	requireAuth := middleware.Auth(deps.Auth)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.PUT("/update-profile", authHandler.UpdateProfile, requireAuth)
	auth.GET("/check", authHandler.Check, requireAuth)

	// --- Message routes ---
	messages := e.Group("/api/messages", requireAuth)
	messages.GET("/users", messageHandler.Contacts)
	messages.GET("/:id", messageHandler.Conversation)
	messages.POST("/send/:id", messageHandler.Send)

	// --- Live channel ---
	e.GET("/ws", wsHandler.Connect, requireAuth)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	readinessHandler := handlers.NewReadinessHandler(deps.Readiness...)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			switch {
			case v.Status >= http.StatusInternalServerError:
				event = log.Error().Err(v.Error)
			case v.Error != nil:
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
