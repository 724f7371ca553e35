package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// RoomCreatedEvent is emitted the first time a room id is joined.
type RoomCreatedEvent struct {
	RoomID    string    `json:"room_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ParticipantJoinedEvent is emitted when a connection joins a room.
type ParticipantJoinedEvent struct {
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// ParticipantLeftEvent is emitted once per connection when it leaves its room.
type ParticipantLeftEvent struct {
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatMessageRelayedEvent is emitted after a chat message is fanned out to a room.
type ChatMessageRelayedEvent struct {
	RoomID    string    `json:"room_id"`
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// SignalRelayedEvent is emitted for every offer, answer or candidate the relay handles.
type SignalRelayedEvent struct {
	RoomID    string    `json:"room_id"`
	Type      string    `json:"type"`
	SenderID  string    `json:"sender_id"`
	TargetID  string    `json:"target_id"`
	Delivered bool      `json:"delivered"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the signaling domain.
var (
	RoomCreatedV1 = helper.EventDefinition[RoomCreatedEvent](
		"signaling",
		"RoomCreated",
		"v1",
	)

	ParticipantJoinedV1 = helper.EventDefinition[ParticipantJoinedEvent](
		"signaling",
		"ParticipantJoined",
		"v1",
	)

	ParticipantLeftV1 = helper.EventDefinition[ParticipantLeftEvent](
		"signaling",
		"ParticipantLeft",
		"v1",
	)

	ChatMessageRelayedV1 = helper.EventDefinition[ChatMessageRelayedEvent](
		"signaling",
		"ChatMessageRelayed",
		"v1",
	)

	SignalRelayedV1 = helper.EventDefinition[SignalRelayedEvent](
		"signaling",
		"SignalRelayed",
		"v1",
	)
)
