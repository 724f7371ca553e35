package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/webrtc-signaling-relay/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Service names registered by the activity module.
const (
	ServiceGetSummary   = "get-activity-summary"
	ServiceGetRecent    = "get-activity-recent"
	ServiceGetRoomStats = "get-room-activity"
)

const (
	defaultRecentLimit = 100
	maxRecentLimit     = 1000
)

// Module consumes signaling events and keeps activity counters.
type Module struct {
	store  *Store
	logger types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new activity module.
func NewModule(logger types.Logger) *Module {
	return &Module{
		store:  NewStore(),
		logger: logger.WithModule("activity"),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "activity"
}

// RegisterEventConsumers registers handlers for signaling events.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomCreatedV1, m.handleRoomCreated, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomCreated consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.ParticipantJoinedV1, m.handleParticipantJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register ParticipantJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.ParticipantLeftV1, m.handleParticipantLeft, m,
	); err != nil {
		return fmt.Errorf("failed to register ParticipantLeft consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.ChatMessageRelayedV1, m.handleChatMessageRelayed, m,
	); err != nil {
		return fmt.Errorf("failed to register ChatMessageRelayed consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.SignalRelayedV1, m.handleSignalRelayed, m,
	); err != nil {
		return fmt.Errorf("failed to register SignalRelayed consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", []string{
		"RoomCreated.v1",
		"ParticipantJoined.v1",
		"ParticipantLeft.v1",
		"ChatMessageRelayed.v1",
		"SignalRelayed.v1",
	})
	return nil
}

func (m *Module) handleRoomCreated(_ context.Context, event events.RoomCreatedEvent, _ *mono.Msg) error {
	m.store.RecordRoomCreated(event.RoomID, event.Timestamp)
	m.logger.Debug("Recorded room creation", "roomID", event.RoomID)
	return nil
}

func (m *Module) handleParticipantJoined(_ context.Context, event events.ParticipantJoinedEvent, _ *mono.Msg) error {
	m.store.RecordJoin(event.RoomID, event.UserID, event.Name, event.Timestamp)
	m.logger.Debug("Recorded join", "roomID", event.RoomID, "userID", event.UserID)
	return nil
}

func (m *Module) handleParticipantLeft(_ context.Context, event events.ParticipantLeftEvent, _ *mono.Msg) error {
	m.store.RecordLeave(event.RoomID, event.UserID, event.Timestamp)
	m.logger.Debug("Recorded leave", "roomID", event.RoomID, "userID", event.UserID)
	return nil
}

func (m *Module) handleChatMessageRelayed(_ context.Context, event events.ChatMessageRelayedEvent, _ *mono.Msg) error {
	m.store.RecordChatMessage(event.RoomID, event.UserID, event.MessageID, event.Timestamp)
	return nil
}

func (m *Module) handleSignalRelayed(_ context.Context, event events.SignalRelayedEvent, _ *mono.Msg) error {
	m.store.RecordSignal(event.RoomID, event.Type, event.SenderID, event.Delivered, event.Timestamp)
	return nil
}

// RegisterServices registers this module's services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := container.RegisterRequestReplyService(ServiceGetSummary, m.handleGetSummary); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetSummary, err)
	}

	if err := container.RegisterRequestReplyService(ServiceGetRecent, m.handleGetRecent); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetRecent, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceGetRoomStats,
		json.Unmarshal,
		json.Marshal,
		m.handleGetRoomStats,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetRoomStats, err)
	}

	m.logger.Info("Registered activity services",
		"services", []string{ServiceGetSummary, ServiceGetRecent, ServiceGetRoomStats})
	return nil
}

// handleGetSummary handles get-activity-summary service requests.
func (m *Module) handleGetSummary(_ context.Context, _ *mono.Msg) ([]byte, error) {
	return json.Marshal(m.store.GetSummary())
}

// handleGetRecent handles get-activity-recent service requests.
func (m *Module) handleGetRecent(_ context.Context, msg *mono.Msg) ([]byte, error) {
	var req RecentRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}
	}
	return json.Marshal(m.store.GetRecentEntries(clampLimit(req.Limit)))
}

// handleGetRoomStats handles get-room-activity service requests.
func (m *Module) handleGetRoomStats(_ context.Context, req RoomStatsRequest, _ *mono.Msg) (RoomStatsResponse, error) {
	stats, ok := m.store.GetRoomStats(req.RoomID)
	if !ok {
		return RoomStatsResponse{Found: false}, nil
	}
	return RoomStatsResponse{Found: true, Stats: stats}, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentLimit
	}
	if limit > maxRecentLimit {
		return maxRecentLimit
	}
	return limit
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Activity module started")
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	summary := m.store.GetSummary()
	m.logger.Info("Activity module stopped",
		"joins", summary.Joins,
		"chatMessages", summary.ChatMessages)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	summary := m.store.GetSummary()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"online":      summary.Online,
			"peak_online": summary.PeakOnline,
		},
	}
}

// Store returns the activity store.
func (m *Module) Store() *Store {
	return m.store
}
