package signaling

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/webrtc-signaling-relay/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Options configures the signaling module.
type Options struct {
	WriteTimeout time.Duration
	Relay        RelayOptions
}

// Module hosts the signaling hub, router and connection relay.
type Module struct {
	hub      *Hub
	router   *Router
	relay    *Relay
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new signaling module.
func NewModule(logger types.Logger, opts Options) (*Module, error) {
	logger = logger.WithModule("signaling")
	m := &Module{logger: logger}

	publisher := &busPublisher{
		bus:    func() mono.EventBus { return m.eventBus },
		logger: logger,
	}

	m.hub = NewHub(logger, opts.WriteTimeout)
	m.hub.SetPublisher(publisher)

	router, err := NewRouter(m.hub, publisher, logger)
	if err != nil {
		return nil, err
	}
	m.router = router
	m.relay = NewRelay(m.hub, router, opts.Relay, logger)
	return m, nil
}

// Name returns the module name.
func (m *Module) Name() string {
	return "signaling"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomCreatedV1.ToBase(),
		events.ParticipantJoinedV1.ToBase(),
		events.ParticipantLeftV1.ToBase(),
		events.ChatMessageRelayedV1.ToBase(),
		events.SignalRelayedV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceListRooms,
		json.Unmarshal,
		json.Marshal,
		m.handleListRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceGetRoom,
		json.Unmarshal,
		json.Marshal,
		m.handleGetRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetRoom, err)
	}

	m.logger.Info("Registered signaling services",
		"services", []string{ServiceListRooms, ServiceGetRoom})
	return nil
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Signaling module started")
	return nil
}

// Stop closes every live connection and waits, bounded by ctx, for
// pending leave announcements to be published.
func (m *Module) Stop(ctx context.Context) error {
	closed := m.hub.CloseAll()
	if err := m.hub.Wait(ctx); err != nil {
		return fmt.Errorf("failed to drain leave announcements: %w", err)
	}
	m.logger.Info("Signaling module stopped", "closedConnections", closed)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connections": m.hub.ConnectionCount(),
			"rooms":       m.hub.RoomCount(),
		},
	}
}

// Relay returns the connection relay for the transport layer.
func (m *Module) Relay() *Relay {
	return m.relay
}

// Hub returns the signaling hub.
func (m *Module) Hub() *Hub {
	return m.hub
}
