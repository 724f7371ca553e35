package main

import (
	"context"
	"log"
	"os"

	"github.com/example/webrtc-signaling-relay/modules/activity"
	"github.com/example/webrtc-signaling-relay/modules/api"
	"github.com/example/webrtc-signaling-relay/modules/signaling"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== WebRTC Signaling Relay - Fiber WebSocket + EventBus ===")

	cfg := LoadConfig()

	logLevel := mono.LogLevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = mono.LogLevelDebug
	case "warn", "warning":
		logLevel = mono.LogLevelWarn
	case "error":
		logLevel = mono.LogLevelError
	}
	logFormat := mono.LogFormatText
	if cfg.LogFormat == "json" {
		logFormat = mono.LogFormatJSON
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(logFormat),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	// Create modules
	signalingModule, err := signaling.NewModule(logger, signaling.Options{
		WriteTimeout: cfg.WSWriteTimeout,
		Relay: signaling.RelayOptions{
			MaxMessagesPerSecond: cfg.MaxMessagesPerSecond,
			MaxBurst:             cfg.MaxBurst,
		},
	})
	if err != nil {
		log.Fatalf("Failed to create signaling module: %v", err)
	}
	activityModule := activity.NewModule(logger)
	apiModule := api.NewModule(logger, api.Config{
		Port:           cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// The relay drives live connections and is not exposed via ServiceContainer
	apiModule.SetRelay(signalingModule.Relay())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - signaling: Core domain (ServiceProviderModule + EventEmitterModule)
	// - activity: Event consumer (counters behind request-reply services)
	// - api: Driving adapter (Fiber HTTP/WebSocket server, depends on both)
	for _, m := range []mono.Module{signalingModule, activityModule, apiModule} {
		if err := app.Register(m); err != nil {
			log.Fatalf("Failed to register module %s: %v", m.Name(), err)
		}
	}

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Event Bus: NATS JetStream (internal pubsub)")
	log.Printf("  - CORS origins: %s", cfg.AllowedOrigins)
	if cfg.MaxMessagesPerSecond > 0 {
		log.Printf("  - Rate limit: %d msg/s (burst %d)", cfg.MaxMessagesPerSecond, cfg.MaxBurst)
	}
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", cfg.Port)
	log.Println("  GET    /                       - Service banner")
	log.Println("  GET    /health                 - Health check")
	log.Println("  GET    /rooms                  - List all rooms")
	log.Println("  GET    /rooms/:id              - Get room participants")
	log.Println("  GET    /stats                  - Activity summary")
	log.Println("  GET    /stats/recent           - Recent activity")
	log.Println("  GET    /stats/rooms/:id        - Room activity")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws/:roomId/:userName):", cfg.Port)
	log.Println("  Message types: chatMessage, offer, answer, candidate, toggleMute, toggleVideo")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
