package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ErrRoomNotTracked is returned when no activity was recorded for a room.
var ErrRoomNotTracked = errors.New("room not tracked")

// RecentRequest is the request for get-activity-recent.
type RecentRequest struct {
	Limit int `json:"limit"`
}

// RoomStatsRequest is the request for get-room-activity.
type RoomStatsRequest struct {
	RoomID string `json:"room_id"`
}

// RoomStatsResponse is the response for get-room-activity.
type RoomStatsResponse struct {
	Found bool       `json:"found"`
	Stats *RoomStats `json:"stats,omitempty"`
}

// ActivityPort defines the interface for reading activity data.
// Consumers should use this interface instead of referencing the Module.
type ActivityPort interface {
	GetSummary(ctx context.Context) (*Summary, error)
	GetRecent(ctx context.Context, limit int) ([]Entry, error)
	GetRoomStats(ctx context.Context, roomID string) (*RoomStats, error)
}

// activityAdapter implements ActivityPort using the service container.
type activityAdapter struct {
	container mono.ServiceContainer
}

// NewActivityAdapter creates a new adapter for the activity services.
func NewActivityAdapter(container mono.ServiceContainer) ActivityPort {
	return &activityAdapter{
		container: container,
	}
}

// GetSummary retrieves the activity summary.
func (a *activityAdapter) GetSummary(ctx context.Context) (*Summary, error) {
	client, err := a.container.GetRequestReplyService(ServiceGetSummary)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s service: %w", ServiceGetSummary, err)
	}

	resp, err := client.Call(ctx, []byte{})
	if err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceGetSummary, err)
	}

	var summary Summary
	if err := json.Unmarshal(resp.Data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &summary, nil
}

// GetRecent retrieves the most recent activity entries.
func (a *activityAdapter) GetRecent(ctx context.Context, limit int) ([]Entry, error) {
	req := RecentRequest{Limit: limit}
	var entries []Entry
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetRecent,
		json.Marshal,
		json.Unmarshal,
		&req,
		&entries,
	); err != nil {
		return nil, fmt.Errorf("failed to get recent activity: %w", err)
	}
	return entries, nil
}

// GetRoomStats retrieves the counters of one room.
func (a *activityAdapter) GetRoomStats(ctx context.Context, roomID string) (*RoomStats, error) {
	req := RoomStatsRequest{RoomID: roomID}
	var resp RoomStatsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetRoomStats,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get room activity: %w", err)
	}
	if !resp.Found || resp.Stats == nil {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotTracked, roomID)
	}
	return resp.Stats, nil
}
