package api

import (
	"context"
	"fmt"
	"time"

	"github.com/example/webrtc-signaling-relay/modules/activity"
	"github.com/example/webrtc-signaling-relay/modules/signaling"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const serviceName = "WebRTC Signaling Relay"

// Config configures the HTTP server.
type Config struct {
	Port           string
	AllowedOrigins string
}

// APIModule is the HTTP API module with WebSocket signaling.
type APIModule struct {
	app           *fiber.App
	signalingPort signaling.SignalingPort
	activityPort  activity.ActivityPort
	relay         *signaling.Relay
	config        Config
	logger        types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule(logger types.Logger, config Config) *APIModule {
	if config.Port == "" {
		config.Port = "8000"
	}
	return &APIModule{
		config: config,
		logger: logger.WithModule("api"),
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"signaling", "activity"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "signaling":
		m.signalingPort = signaling.NewSignalingAdapter(container)
	case "activity":
		m.activityPort = activity.NewActivityAdapter(container)
	}
}

// SetRelay sets the connection relay (called from main.go).
func (m *APIModule) SetRelay(relay *signaling.Relay) {
	m.relay = relay
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.signalingPort == nil {
		return fmt.Errorf("signaling adapter dependency not set")
	}
	if m.activityPort == nil {
		return fmt.Errorf("activity adapter dependency not set")
	}
	if m.relay == nil {
		return fmt.Errorf("signaling relay dependency not set")
	}

	m.app = m.newApp()

	// Start server in goroutine with startup error detection
	addr := ":" + m.config.Port
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "addr", addr)
	return nil
}

// Stop closes live WebSocket connections and shuts down the HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	closed := m.relay.CloseAll()
	m.logger.Info("Shutting down HTTP server...", "closedConnections", closed)
	if err := m.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Health returns the health status.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	details := map[string]any{
		"port": m.config.Port,
	}
	if m.relay != nil {
		details["connections"] = m.relay.Hub().ConnectionCount()
	}
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: details,
	}
}

// newApp builds the Fiber app with middleware and routes.
func (m *APIModule) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "webrtc-signaling-relay",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		UnescapePath:          true,
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool {
			return websocket.IsWebSocketUpgrade(c)
		},
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: m.config.AllowedOrigins,
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	m.setupRoutes(app)
	return app
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
