package signaling

import "errors"

var (
	// ErrRoomNotFound is returned when a room id has never been joined.
	ErrRoomNotFound = errors.New("room not found")

	// ErrPeerClosed is returned when writing to a channel that was already closed.
	ErrPeerClosed = errors.New("peer channel closed")

	// ErrMalformedMessage is returned when an inbound frame is not a JSON object.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrRateLimited is returned when a connection exceeds its message budget.
	ErrRateLimited = errors.New("rate limit exceeded")
)
