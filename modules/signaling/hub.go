package signaling

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "github.com/example/webrtc-signaling-relay/domain/signaling"
	"github.com/go-monolith/mono/pkg/types"
)

// Hub owns the room registry, the live connection records and the
// user→room index. One RWMutex guards all three so that a participant is
// in a room iff its connection is registered and indexed to that room.
// Network writes never happen while the lock is held.
type Hub struct {
	mu       sync.RWMutex
	registry *RoomRegistry
	peers    map[string]*peer  // userID -> connection record
	userRoom map[string]string // userID -> roomID

	writeTimeout time.Duration
	publisher    Publisher
	logger       types.Logger

	leaves int // detached leave announcements in flight, guarded by mu
}

// NewHub creates a Hub. A zero writeTimeout disables write deadlines.
func NewHub(logger types.Logger, writeTimeout time.Duration) *Hub {
	return &Hub{
		registry:     NewRoomRegistry(),
		peers:        make(map[string]*peer),
		userRoom:     make(map[string]string),
		writeTimeout: writeTimeout,
		publisher:    nopPublisher{},
		logger:       logger,
	}
}

// SetPublisher installs the sink for domain notifications.
func (h *Hub) SetPublisher(p Publisher) {
	if p == nil {
		p = nopPublisher{}
	}
	h.publisher = p
}

// Register stores the outbound channel of a user, replacing any previous one.
func (h *Hub) Register(userID string, ch Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.peers[userID] = newPeer(userID, ch)
}

// Join admits a user to a room. Registration, room membership and the
// index entry are recorded as one step, and the participants already in
// the room are snapshotted in the same step. The newcomer then receives one
// participantJoined per snapshot member, in join order, and only those
// members are told about the newcomer. Frames other goroutines send to the
// newcomer queue behind that replay. Join returns the snapshot.
func (h *Hub) Join(userID, roomID, name string, ch Channel) []domain.Participant {
	p := domain.Participant{ID: userID, Name: name}
	np := newPeer(userID, ch)
	np.mu.Lock()

	h.mu.Lock()
	h.peers[userID] = np
	_, created := h.registry.EnsureRoom(roomID)
	existing := h.registry.ListParticipants(roomID)
	h.registry.AddParticipant(roomID, p)
	h.userRoom[userID] = roomID
	h.mu.Unlock()

	err := h.replay(np, roomID, existing)
	np.mu.Unlock()

	if created {
		h.logger.Info("Created room", "roomID", roomID)
		h.publisher.RoomCreated(roomID)
	}
	h.logger.Info("Participant joined", "userID", userID, "name", name, "roomID", roomID)
	h.publisher.ParticipantJoined(roomID, p)

	if err != nil {
		h.evict(np, err)
		return existing
	}

	if len(existing) > 0 {
		data, err := participantJoined(userID, name, roomID).Encode()
		if err != nil {
			h.logger.Error("Failed to encode join announcement", "userID", userID, "error", err)
			return existing
		}
		for _, member := range existing {
			h.sendRaw(member.ID, data)
		}
	}
	return existing
}

// replay writes the roster to a peer whose write lock the caller holds.
func (h *Hub) replay(p *peer, roomID string, roster []domain.Participant) error {
	for _, member := range roster {
		data, err := participantJoined(member.ID, member.Name, roomID).Encode()
		if err != nil {
			return err
		}
		if err := p.writeLocked(data, h.writeTimeout); err != nil {
			return err
		}
	}
	return nil
}

// Unregister removes the connection, its index entry and its room
// membership. It returns the indexed room; ok is true only for the call
// that actually removed the entry.
func (h *Hub) Unregister(userID string) (roomID string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.unregisterLocked(userID)
}

func (h *Hub) unregisterLocked(userID string) (string, bool) {
	if p, exists := h.peers[userID]; exists {
		p.closed.Store(true)
		delete(h.peers, userID)
	}
	roomID, ok := h.userRoom[userID]
	if !ok {
		return "", false
	}
	delete(h.userRoom, userID)
	h.registry.RemoveParticipant(roomID, userID)
	return roomID, true
}

// Leave unregisters a user and, if it was in a room, tells the remaining
// members. It reports whether this call performed the removal.
func (h *Hub) Leave(userID string) bool {
	roomID, ok := h.Unregister(userID)
	if !ok {
		return false
	}
	h.announceLeave(roomID, userID)
	return true
}

// Send delivers a message to one user. Unknown users are ignored. A closed
// channel or a failed write evicts the user and announces the departure on
// a separate goroutine. It reports whether the message was written.
func (h *Hub) Send(userID string, msg Message) bool {
	data, err := msg.Encode()
	if err != nil {
		h.logger.Error("Failed to encode message", "userID", userID, "error", err)
		return false
	}
	return h.sendRaw(userID, data)
}

func (h *Hub) sendRaw(userID string, data []byte) bool {
	h.mu.RLock()
	p, ok := h.peers[userID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	if err := p.write(data, h.writeTimeout); err != nil {
		h.evict(p, err)
		return false
	}
	return true
}

// BroadcastToRoom sends a message to every current member of a room except
// excludeUserID. Sends are sequential and independent of each other.
func (h *Hub) BroadcastToRoom(roomID string, msg Message, excludeUserID string) {
	data, err := msg.Encode()
	if err != nil {
		h.logger.Error("Failed to encode broadcast", "roomID", roomID, "error", err)
		return
	}

	h.mu.RLock()
	members := h.registry.ListParticipants(roomID)
	h.mu.RUnlock()

	for _, member := range members {
		if member.ID == excludeUserID {
			continue
		}
		h.sendRaw(member.ID, data)
	}
}

// evict removes a dead peer. The record is only removed if it is still the
// one registered under its id.
func (h *Hub) evict(p *peer, cause error) {
	h.mu.Lock()
	roomID, ok := "", false
	if cur, exists := h.peers[p.id]; exists && cur == p {
		roomID, ok = h.unregisterLocked(p.id)
	}
	if ok {
		h.leaves++
	}
	h.mu.Unlock()

	p.close()
	h.logger.Warn("Evicted unreachable peer", "userID", p.id, "error", cause)

	if ok {
		go func() {
			h.announceLeave(roomID, p.id)
			h.mu.Lock()
			h.leaves--
			h.mu.Unlock()
		}()
	}
}

func (h *Hub) announceLeave(roomID, userID string) {
	h.logger.Info("Participant left", "userID", userID, "roomID", roomID)
	h.BroadcastToRoom(roomID, participantLeft(userID, roomID), userID)
	h.publisher.ParticipantLeft(roomID, userID)
}

// Wait blocks until detached leave announcements have finished or ctx is
// done.
func (h *Hub) Wait(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		h.mu.RLock()
		pending := h.leaves
		h.mu.RUnlock()
		if pending == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%d leave announcements pending: %w", pending, ctx.Err())
		case <-ticker.C:
		}
	}
}

// CloseAll closes every live channel. Sessions observe the close on their
// next read and leave through the normal path.
func (h *Hub) CloseAll() int {
	h.mu.RLock()
	peers := make([]*peer, 0, len(h.peers))
	for _, p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.RUnlock()

	for _, p := range peers {
		p.close()
	}
	return len(peers)
}

// ListRooms returns a summary of every room.
func (h *Hub) ListRooms() []domain.RoomSummary {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.registry.ListRooms()
}

// Room returns the detail view of a room.
func (h *Hub) Room(roomID string) (domain.RoomDetail, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.registry.Room(roomID)
}

// ListParticipants returns the participants of a room.
func (h *Hub) ListParticipants(roomID string) []domain.Participant {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.registry.ListParticipants(roomID)
}

// RoomOf returns the room a user is indexed to.
func (h *Hub) RoomOf(userID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	roomID, ok := h.userRoom[userID]
	return roomID, ok
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// RoomCount returns the number of rooms ever created.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.registry.Len()
}
