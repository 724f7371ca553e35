package signaling

import domain "github.com/example/webrtc-signaling-relay/domain/signaling"

// Service names registered in the signaling service container.
const (
	ServiceListRooms = "list-rooms"
	ServiceGetRoom   = "get-room"
)

// ListRoomsRequest is the request for list-rooms.
type ListRoomsRequest struct{}

// ListRoomsResponse is the response for list-rooms.
type ListRoomsResponse struct {
	Rooms []domain.RoomSummary `json:"rooms"`
}

// GetRoomRequest is the request for get-room.
type GetRoomRequest struct {
	RoomID string `json:"roomId"`
}

// GetRoomResponse is the response for get-room. Found is false for unknown rooms.
type GetRoomResponse struct {
	Found bool               `json:"found"`
	Room  *domain.RoomDetail `json:"room,omitempty"`
}
