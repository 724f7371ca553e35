package signaling

import (
	"time"

	domain "github.com/example/webrtc-signaling-relay/domain/signaling"
	"github.com/example/webrtc-signaling-relay/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// Publisher receives domain notifications from the hub and the router.
type Publisher interface {
	RoomCreated(roomID string)
	ParticipantJoined(roomID string, p domain.Participant)
	ParticipantLeft(roomID, userID string)
	ChatMessageRelayed(roomID, messageID, userID string)
	SignalRelayed(roomID, signalType, senderID, targetID string, delivered bool)
}

type nopPublisher struct{}

func (nopPublisher) RoomCreated(string)                                 {}
func (nopPublisher) ParticipantJoined(string, domain.Participant)       {}
func (nopPublisher) ParticipantLeft(string, string)                     {}
func (nopPublisher) ChatMessageRelayed(string, string, string)          {}
func (nopPublisher) SignalRelayed(string, string, string, string, bool) {}

// busPublisher publishes notifications on the mono event bus. The bus is
// read on every call because the framework injects it after construction.
type busPublisher struct {
	bus    func() mono.EventBus
	logger types.Logger
}

func (p *busPublisher) RoomCreated(roomID string) {
	bus := p.bus()
	if bus == nil {
		return
	}
	ev := events.RoomCreatedEvent{RoomID: roomID, Timestamp: time.Now()}
	if err := events.RoomCreatedV1.Publish(bus, ev, nil); err != nil {
		p.logger.Warn("Failed to publish RoomCreated event", "error", err)
	}
}

func (p *busPublisher) ParticipantJoined(roomID string, participant domain.Participant) {
	bus := p.bus()
	if bus == nil {
		return
	}
	ev := events.ParticipantJoinedEvent{
		RoomID:    roomID,
		UserID:    participant.ID,
		Name:      participant.Name,
		Timestamp: time.Now(),
	}
	if err := events.ParticipantJoinedV1.Publish(bus, ev, nil); err != nil {
		p.logger.Warn("Failed to publish ParticipantJoined event", "error", err)
	}
}

func (p *busPublisher) ParticipantLeft(roomID, userID string) {
	bus := p.bus()
	if bus == nil {
		return
	}
	ev := events.ParticipantLeftEvent{RoomID: roomID, UserID: userID, Timestamp: time.Now()}
	if err := events.ParticipantLeftV1.Publish(bus, ev, nil); err != nil {
		p.logger.Warn("Failed to publish ParticipantLeft event", "error", err)
	}
}

func (p *busPublisher) ChatMessageRelayed(roomID, messageID, userID string) {
	bus := p.bus()
	if bus == nil {
		return
	}
	ev := events.ChatMessageRelayedEvent{
		RoomID:    roomID,
		MessageID: messageID,
		UserID:    userID,
		Timestamp: time.Now(),
	}
	if err := events.ChatMessageRelayedV1.Publish(bus, ev, nil); err != nil {
		p.logger.Warn("Failed to publish ChatMessageRelayed event", "error", err)
	}
}

func (p *busPublisher) SignalRelayed(roomID, signalType, senderID, targetID string, delivered bool) {
	bus := p.bus()
	if bus == nil {
		return
	}
	ev := events.SignalRelayedEvent{
		RoomID:    roomID,
		Type:      signalType,
		SenderID:  senderID,
		TargetID:  targetID,
		Delivered: delivered,
		Timestamp: time.Now(),
	}
	if err := events.SignalRelayedV1.Publish(bus, ev, nil); err != nil {
		p.logger.Warn("Failed to publish SignalRelayed event", "error", err)
	}
}
