package signaling

import (
	"time"

	domain "github.com/example/webrtc-signaling-relay/domain/signaling"
)

// Room is a named group of participants kept in join order.
type Room struct {
	ID        string
	CreatedAt time.Time

	order   []string
	members map[string]domain.Participant
}

func newRoom(id string) *Room {
	return &Room{
		ID:        id,
		CreatedAt: time.Now(),
		members:   make(map[string]domain.Participant),
	}
}

// Len returns the number of participants.
func (r *Room) Len() int {
	return len(r.order)
}

// Participants returns the participants in join order.
func (r *Room) Participants() []domain.Participant {
	out := make([]domain.Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.members[id])
	}
	return out
}

func (r *Room) put(p domain.Participant) {
	if _, ok := r.members[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.members[p.ID] = p
}

func (r *Room) delete(userID string) {
	if _, ok := r.members[userID]; !ok {
		return
	}
	delete(r.members, userID)
	for i, id := range r.order {
		if id == userID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// RoomRegistry is the table of rooms and their participants.
// It is not safe for concurrent use; Hub guards it.
// Rooms are never removed, even once empty.
type RoomRegistry struct {
	rooms map[string]*Room
	order []string
}

// NewRoomRegistry creates an empty RoomRegistry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*Room),
	}
}

// EnsureRoom returns the room with the given id, creating it if needed.
// The second result reports whether the room was created by this call.
func (r *RoomRegistry) EnsureRoom(roomID string) (*Room, bool) {
	if room, ok := r.rooms[roomID]; ok {
		return room, false
	}
	room := newRoom(roomID)
	r.rooms[roomID] = room
	r.order = append(r.order, roomID)
	return room, true
}

// AddParticipant inserts or overwrites a participant in an existing room.
func (r *RoomRegistry) AddParticipant(roomID string, p domain.Participant) {
	if room, ok := r.rooms[roomID]; ok {
		room.put(p)
	}
}

// RemoveParticipant removes a participant. Unknown rooms and users are ignored.
func (r *RoomRegistry) RemoveParticipant(roomID, userID string) {
	if room, ok := r.rooms[roomID]; ok {
		room.delete(userID)
	}
}

// ListParticipants returns the participants of a room in join order.
// An unknown room yields an empty slice.
func (r *RoomRegistry) ListParticipants(roomID string) []domain.Participant {
	room, ok := r.rooms[roomID]
	if !ok {
		return []domain.Participant{}
	}
	return room.Participants()
}

// ListRooms returns a summary of every room in creation order.
func (r *RoomRegistry) ListRooms() []domain.RoomSummary {
	out := make([]domain.RoomSummary, 0, len(r.order))
	for _, id := range r.order {
		room := r.rooms[id]
		names := make([]string, 0, room.Len())
		for _, p := range room.Participants() {
			names = append(names, p.Name)
		}
		out = append(out, domain.RoomSummary{
			ID:               room.ID,
			ParticipantCount: room.Len(),
			ParticipantNames: names,
			CreatedAt:        room.CreatedAt,
		})
	}
	return out
}

// Room returns the detail view of a room.
func (r *RoomRegistry) Room(roomID string) (domain.RoomDetail, bool) {
	room, ok := r.rooms[roomID]
	if !ok {
		return domain.RoomDetail{}, false
	}
	return domain.RoomDetail{
		ID:           room.ID,
		Participants: room.Participants(),
		CreatedAt:    room.CreatedAt,
	}, true
}

// Len returns the number of rooms.
func (r *RoomRegistry) Len() int {
	return len(r.order)
}
