package signaling

import "time"

// Participant is a user's presence within a room.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomSummary is the listing view of a room.
type RoomSummary struct {
	ID               string    `json:"id"`
	ParticipantCount int       `json:"participantCount"`
	ParticipantNames []string  `json:"participantNames"`
	CreatedAt        time.Time `json:"createdAt"`
}

// RoomDetail is the detail view of a room.
type RoomDetail struct {
	ID           string        `json:"id"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"createdAt"`
}
