package signaling

import (
	"fmt"

	"github.com/go-monolith/mono/pkg/types"
	nanoid "github.com/jaevor/go-nanoid"
)

const messageIDLength = 21

// Sender identifies the connection a message came from.
type Sender struct {
	ID     string
	Name   string
	RoomID string
}

// Dispatcher delivers envelopes to connections. Hub implements it.
type Dispatcher interface {
	Send(userID string, msg Message) bool
	BroadcastToRoom(roomID string, msg Message, excludeUserID string)
}

// Router dispatches decoded inbound messages by their type field.
// It keeps no per-connection state.
type Router struct {
	out       Dispatcher
	publisher Publisher
	newID     func() string
	logger    types.Logger
}

// NewRouter creates a Router writing through out.
func NewRouter(out Dispatcher, publisher Publisher, logger types.Logger) (*Router, error) {
	gen, err := nanoid.Standard(messageIDLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create message id generator: %w", err)
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &Router{
		out:       out,
		publisher: publisher,
		newID:     gen,
		logger:    logger,
	}, nil
}

// Route handles one message from s.
func (r *Router) Route(s Sender, msg Message) {
	switch msgType := msg.Type(); msgType {
	case TypeJoin:
		// Joining happens when the connection is accepted.
	case TypeChatMessage:
		r.relayChat(s, msg)
	case TypeOffer, TypeAnswer, TypeCandidate:
		r.relaySignal(s, msgType, msg)
	case TypeToggleMute, TypeToggleVideo:
		r.out.BroadcastToRoom(s.RoomID, withSender(msg, s), s.ID)
	default:
		r.logger.Warn("Dropped message with unknown type",
			"type", string(msg[keyType]),
			"userID", s.ID,
			"roomID", s.RoomID)
	}
}

// relayChat echoes a chat message to the whole room, sender included.
func (r *Router) relayChat(s Sender, msg Message) {
	id := r.newID()
	r.out.BroadcastToRoom(s.RoomID, chatEnvelope(msg, s, id), "")
	r.publisher.ChatMessageRelayed(s.RoomID, id, s.ID)
}

// relaySignal forwards a negotiation payload to its targetId only.
func (r *Router) relaySignal(s Sender, msgType string, msg Message) {
	targetID, ok := msg.String(keyTargetID)
	if !ok || targetID == "" {
		r.logger.Debug("Dropped signal without target", "type", msgType, "userID", s.ID)
		return
	}

	delivered := r.out.Send(targetID, withSender(msg, s))
	if !delivered {
		r.logger.Debug("Dropped signal for unknown target",
			"type", msgType,
			"userID", s.ID,
			"targetID", targetID)
	}
	r.publisher.SignalRelayed(s.RoomID, msgType, s.ID, targetID, delivered)
}
