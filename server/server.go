package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/ticketsense/ai/observability/logging"
	"github.com/hrygo/ticketsense/internal/profile"
	apiv1 "github.com/hrygo/ticketsense/server/router/api/v1"
)

// Backend is the ticket pipeline served over HTTP.
type Backend interface {
	apiv1.TicketBackend
	Records() int
}

type Server struct {
	Profile *profile.Profile

	echoServer *echo.Echo
}

// NewServer builds the echo instance. metricsHandler may be nil.
func NewServer(_ context.Context, profile *profile.Profile, backend Backend, metricsHandler http.Handler) (*Server, error) {
	if backend == nil {
		return nil, fmt.Errorf("server: nil backend")
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	echoServer.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: shortuuid.New,
		RequestIDHandler: func(c echo.Context, id string) {
			ctx := logging.WithRequestID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
		},
	}))
	echoServer.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logging.FromContext(c.Request().Context()).Log(c.Request().Context(), level, "HTTP request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"error", v.Error,
			)
			return nil
		},
	}))
	echoServer.Use(middleware.Recover())
	bodyLimit := profile.Pipeline.MaxBody
	if bodyLimit == "" {
		bodyLimit = "2M"
	}
	echoServer.Use(middleware.BodyLimit(bodyLimit))
	echoServer.Use(middleware.CORS())

	s := &Server{
		Profile:    profile,
		echoServer: echoServer,
	}

	// Register healthz endpoint.
	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"version": profile.Version,
			"records": backend.Records(),
		})
	})

	if metricsHandler != nil {
		echoServer.GET("/metrics", echo.WrapHandler(metricsHandler))
	}

	apiv1.NewAPIV1Service(profile, backend).RegisterRoutes(echoServer)

	return s, nil
}

// Start binds the listener and serves in the background.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	s.echoServer.Listener = listener

	go func() {
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

// Shutdown drains in-flight requests for up to 10 seconds.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	slog.Info("server stopped properly")
}

// Handler exposes the router for in-process use.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}
