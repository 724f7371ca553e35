package signaling

import (
	"context"

	"github.com/go-monolith/mono"
)

// handleListRooms handles list-rooms service requests.
func (m *Module) handleListRooms(_ context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	return ListRoomsResponse{Rooms: m.hub.ListRooms()}, nil
}

// handleGetRoom handles get-room service requests.
func (m *Module) handleGetRoom(_ context.Context, req GetRoomRequest, _ *mono.Msg) (GetRoomResponse, error) {
	room, ok := m.hub.Room(req.RoomID)
	if !ok {
		return GetRoomResponse{Found: false}, nil
	}
	return GetRoomResponse{Found: true, Room: &room}, nil
}
