package signaling

import (
	"fmt"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// RelayOptions configures per-connection limits.
type RelayOptions struct {
	// MaxMessagesPerSecond caps inbound messages per connection. Zero disables it.
	MaxMessagesPerSecond int
	// MaxBurst is the token bucket size. Defaults to MaxMessagesPerSecond.
	MaxBurst int
}

// Relay runs the lifecycle of signaling connections.
type Relay struct {
	hub       *Hub
	router    *Router
	opts      RelayOptions
	newUserID func() string
	logger    types.Logger
}

// NewRelay creates a Relay.
func NewRelay(hub *Hub, router *Router, opts RelayOptions, logger types.Logger) *Relay {
	return &Relay{
		hub:       hub,
		router:    router,
		opts:      opts,
		newUserID: uuid.NewString,
		logger:    logger,
	}
}

// Serve joins ch to roomID under the display name and relays its messages
// until the channel closes, a read fails or a frame cannot be decoded.
// Joining exchanges participantJoined notices with the members already
// present.
// The user is removed from the hub exactly once on every exit path; if it
// was still registered, the room is told it left.
func (r *Relay) Serve(ch Channel, roomID, name string) error {
	s := Sender{ID: r.newUserID(), Name: name, RoomID: roomID}

	r.hub.Join(s.ID, roomID, name, ch)
	defer func() {
		r.hub.Leave(s.ID)
		r.logger.Info("Connection closed", "userID", s.ID, "name", name, "roomID", roomID)
	}()

	return r.relay(ch, s)
}

func (r *Relay) relay(ch Channel, s Sender) error {
	limiter := newRateLimiter(r.opts.MaxBurst, r.opts.MaxMessagesPerSecond)

	for {
		_, data, err := ch.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				return nil
			}
			return fmt.Errorf("read from %s failed: %w", s.ID, err)
		}

		msg, err := DecodeMessage(data)
		if err != nil {
			return fmt.Errorf("decode from %s failed: %w", s.ID, err)
		}

		if !limiter.allow() {
			r.logger.Warn("Dropped message", "userID", s.ID, "type", msg.Type(), "error", ErrRateLimited)
			continue
		}

		r.logger.Debug("Received message", "userID", s.ID, "type", msg.Type())
		r.router.Route(s, msg)
	}
}

// CloseAll closes every live connection.
func (r *Relay) CloseAll() int {
	return r.hub.CloseAll()
}

// Hub returns the hub backing the relay.
func (r *Relay) Hub() *Hub {
	return r.hub
}
