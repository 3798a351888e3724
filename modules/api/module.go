package api

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/taskboard/modules/assist"
	"github.com/example/taskboard/modules/auth"
	"github.com/example/taskboard/modules/broadcast"
	"github.com/example/taskboard/modules/task"
)

// Module is the HTTP and WebSocket surface of the application.
type Module struct {
	app    *fiber.App
	auth   *auth.Module
	task   *task.Module
	assist *assist.Module
	hub    *broadcast.Hub
	addr   string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the API module. The auth, task and assist modules
// expose their services only after they have started, so they must be
// registered before this module.
func NewModule(addr string, authModule *auth.Module, taskModule *task.Module, assistModule *assist.Module, hub *broadcast.Hub) *Module {
	return &Module{
		addr:   addr,
		auth:   authModule,
		task:   taskModule,
		assist: assistModule,
		hub:    hub,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Start initializes the Fiber HTTP server.
func (m *Module) Start(_ context.Context) error {
	authSvc := m.auth.Service()
	taskSvc := m.task.Service()
	if authSvc == nil || taskSvc == nil {
		return fmt.Errorf("api module started before its dependencies")
	}
	if m.hub == nil {
		return fmt.Errorf("broadcast hub dependency not set")
	}
	if m.assist == nil {
		return fmt.Errorf("assist module dependency not set")
	}

	m.buildApp(authSvc, taskSvc, m.assist.Service())

	// Start server in goroutine with startup error detection
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	log.Printf("[api] HTTP server started on %s", m.addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr":              m.addr,
			"connected_clients": m.hub.ClientCount(),
			"online_users":      len(m.hub.OnlineUsers()),
		},
	}
}

// buildApp assembles the Fiber app with middleware and routes.
func (m *Module) buildApp(authSvc *auth.Service, taskSvc *task.Service, assistSvc *assist.Service) {
	m.app = fiber.New(fiber.Config{
		AppName:               "Taskboard",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
		Next: func(c *fiber.Ctx) bool {
			// Upgrade requests hold the connection open; skip them.
			return c.Get("Upgrade") == "websocket"
		},
	}))

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:8080"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	handlers := NewHandlers(authSvc, taskSvc, assistSvc, m.hub)
	handlers.RegisterRoutes(m.app)

	m.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
