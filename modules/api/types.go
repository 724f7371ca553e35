package api

// RoomListItem is one entry of GET /rooms.
type RoomListItem struct {
	ID               string   `json:"id"`
	Participants     int      `json:"participants"`
	ParticipantNames []string `json:"participant_names"`
}

// RoomListResponse is the API response for listing rooms.
type RoomListResponse struct {
	Rooms []RoomListItem `json:"rooms"`
}

// ParticipantResponse is a participant in a room detail.
type ParticipantResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomDetailResponse is the API response for GET /rooms/:id.
type RoomDetailResponse struct {
	ID           string                `json:"id"`
	Participants []ParticipantResponse `json:"participants"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RootResponse is the service banner.
type RootResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
