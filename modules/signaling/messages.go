package signaling

import (
	"encoding/json"
	"fmt"
)

// Inbound message types.
const (
	TypeJoin        = "join"
	TypeChatMessage = "chatMessage"
	TypeOffer       = "offer"
	TypeAnswer      = "answer"
	TypeCandidate   = "candidate"
	TypeToggleMute  = "toggleMute"
	TypeToggleVideo = "toggleVideo"
)

// Outbound message types built by the relay itself.
const (
	TypeParticipantJoined = "participantJoined"
	TypeParticipantLeft   = "participantLeft"
)

// Envelope keys.
const (
	keyType       = "type"
	keyTargetID   = "targetId"
	keySenderID   = "senderId"
	keySenderName = "senderName"
	keyRoomID     = "roomId"
	keyID         = "id"
	keyUserID     = "userId"
	keyUser       = "user"
	keyTimestamp  = "timestamp"
)

var jsonNull = json.RawMessage("null")

// Message is a JSON object envelope. Values are kept raw so that fields the
// relay does not understand pass through unchanged.
type Message map[string]json.RawMessage

// DecodeMessage parses an inbound frame. Anything other than a JSON object
// is rejected with ErrMalformedMessage.
func DecodeMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedMessage)
	}
	return msg, nil
}

// NewMessage creates an envelope with the given type.
func NewMessage(msgType string) Message {
	m := make(Message, 4)
	m.Set(keyType, msgType)
	return m
}

// Type returns the type field, or "" when it is missing or not a string.
func (m Message) Type() string {
	s, _ := m.String(keyType)
	return s
}

// String returns a string field.
func (m Message) String(key string) (string, bool) {
	raw, ok := m[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Set stores value under key. Values that cannot be encoded are stored as null.
func (m Message) Set(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		raw = jsonNull
	}
	m[key] = raw
}

// Clone returns a shallow copy with room for extra fields.
func (m Message) Clone() Message {
	out := make(Message, len(m)+4)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Encode marshals the envelope.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(map[string]json.RawMessage(m))
}

// participantJoined builds {type, senderId, senderName, roomId}.
func participantJoined(userID, name, roomID string) Message {
	m := NewMessage(TypeParticipantJoined)
	m.Set(keySenderID, userID)
	m.Set(keySenderName, name)
	m.Set(keyRoomID, roomID)
	return m
}

// participantLeft builds {type, senderId, roomId}.
func participantLeft(userID, roomID string) Message {
	m := NewMessage(TypeParticipantLeft)
	m.Set(keySenderID, userID)
	m.Set(keyRoomID, roomID)
	return m
}

// withSender adds senderId, senderName and roomId to a copy of msg.
func withSender(msg Message, s Sender) Message {
	out := msg.Clone()
	out.Set(keySenderID, s.ID)
	out.Set(keySenderName, s.Name)
	out.Set(keyRoomID, s.RoomID)
	return out
}

// chatEnvelope adds id, userId, user and timestamp to a copy of msg.
// A missing timestamp is relayed as null.
func chatEnvelope(msg Message, s Sender, id string) Message {
	out := msg.Clone()
	out.Set(keyID, id)
	out.Set(keyUserID, s.ID)
	out.Set(keyUser, s.Name)
	if ts, ok := msg[keyTimestamp]; ok {
		out[keyTimestamp] = ts
	} else {
		out[keyTimestamp] = jsonNull
	}
	return out
}
