package signaling

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/webrtc-signaling-relay/domain/signaling"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// SignalingPort defines the room management operations offered to other modules.
type SignalingPort interface {
	ListRooms(ctx context.Context) ([]domain.RoomSummary, error)
	GetRoom(ctx context.Context, roomID string) (*domain.RoomDetail, error)
}

// SignalingAdapter implements SignalingPort using the service container.
type SignalingAdapter struct {
	container mono.ServiceContainer
}

// NewSignalingAdapter creates a new SignalingAdapter.
func NewSignalingAdapter(container mono.ServiceContainer) SignalingPort {
	if container == nil {
		panic("signaling: ServiceContainer is nil")
	}
	return &SignalingAdapter{container: container}
}

// ListRooms returns a summary of every room.
func (a *SignalingAdapter) ListRooms(ctx context.Context) ([]domain.RoomSummary, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return resp.Rooms, nil
}

// GetRoom returns the detail of a room, or ErrRoomNotFound.
func (a *SignalingAdapter) GetRoom(ctx context.Context, roomID string) (*domain.RoomDetail, error) {
	req := GetRoomRequest{RoomID: roomID}
	var resp GetRoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if !resp.Found || resp.Room == nil {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	return resp.Room, nil
}
