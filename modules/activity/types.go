package activity

import (
	"sort"
	"sync"
	"time"
)

// Entry is one recorded signaling event.
type Entry struct {
	Kind   string    `json:"kind"`
	RoomID string    `json:"room_id"`
	UserID string    `json:"user_id,omitempty"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// Entry kinds.
const (
	KindRoomCreated       = "room_created"
	KindParticipantJoined = "participant_joined"
	KindParticipantLeft   = "participant_left"
	KindChatMessage       = "chat_message"
	KindSignal            = "signal"
)

// RoomStats tracks counters for a single room.
type RoomStats struct {
	RoomID       string    `json:"room_id"`
	Joins        int64     `json:"joins"`
	Leaves       int64     `json:"leaves"`
	ChatMessages int64     `json:"chat_messages"`
	Signals      int64     `json:"signals"`
	Online       int       `json:"online"`
	PeakOnline   int       `json:"peak_online"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	LastActivity time.Time `json:"last_activity,omitempty"`
}

// Summary is the process-wide activity snapshot.
type Summary struct {
	RoomsCreated       int64            `json:"rooms_created"`
	Joins              int64            `json:"joins"`
	Leaves             int64            `json:"leaves"`
	ChatMessages       int64            `json:"chat_messages"`
	SignalsByType      map[string]int64 `json:"signals_by_type"`
	UndeliveredSignals int64            `json:"undelivered_signals"`
	Online             int              `json:"online"`
	PeakOnline         int              `json:"peak_online"`
	Rooms              []RoomStats      `json:"rooms"`
}

// DefaultMaxEntries is the default number of recent entries retained.
const DefaultMaxEntries = 1000

// Store provides thread-safe storage for activity counters.
type Store struct {
	mu                 sync.RWMutex
	entries            []Entry
	rooms              map[string]*RoomStats
	roomsCreated       int64
	joins              int64
	leaves             int64
	chatMessages       int64
	signalsByType      map[string]int64
	undeliveredSignals int64
	online             int
	peakOnline         int
	maxEntries         int
}

// NewStore creates a store with the default entry limit.
func NewStore() *Store {
	return NewStoreWithLimit(DefaultMaxEntries)
}

// NewStoreWithLimit creates a store retaining at most maxEntries recent entries.
func NewStoreWithLimit(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{
		entries:       make([]Entry, 0),
		rooms:         make(map[string]*RoomStats),
		signalsByType: make(map[string]int64),
		maxEntries:    maxEntries,
	}
}

// room returns the stats entry for roomID. Callers hold s.mu.
func (s *Store) room(roomID string) *RoomStats {
	stats, ok := s.rooms[roomID]
	if !ok {
		stats = &RoomStats{RoomID: roomID}
		s.rooms[roomID] = stats
	}
	return stats
}

func (s *Store) appendEntry(e Entry) {
	s.entries = append(s.entries, e)
	if len(s.entries) > s.maxEntries {
		excess := len(s.entries) - s.maxEntries
		s.entries = s.entries[excess:]
	}
	s.room(e.RoomID).LastActivity = e.At
}

// RecordRoomCreated records the creation of a room.
func (s *Store) RecordRoomCreated(roomID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roomsCreated++
	s.room(roomID).CreatedAt = at
	s.appendEntry(Entry{Kind: KindRoomCreated, RoomID: roomID, At: at})
}

// RecordJoin records a participant joining a room.
func (s *Store) RecordJoin(roomID, userID, name string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.joins++
	s.online++
	if s.online > s.peakOnline {
		s.peakOnline = s.online
	}

	stats := s.room(roomID)
	stats.Joins++
	stats.Online++
	if stats.Online > stats.PeakOnline {
		stats.PeakOnline = stats.Online
	}
	s.appendEntry(Entry{Kind: KindParticipantJoined, RoomID: roomID, UserID: userID, Detail: name, At: at})
}

// RecordLeave records a participant leaving a room.
func (s *Store) RecordLeave(roomID, userID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.leaves++
	if s.online > 0 {
		s.online--
	}

	stats := s.room(roomID)
	stats.Leaves++
	if stats.Online > 0 {
		stats.Online--
	}
	s.appendEntry(Entry{Kind: KindParticipantLeft, RoomID: roomID, UserID: userID, At: at})
}

// RecordChatMessage records a relayed chat message.
func (s *Store) RecordChatMessage(roomID, userID, messageID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chatMessages++
	s.room(roomID).ChatMessages++
	s.appendEntry(Entry{Kind: KindChatMessage, RoomID: roomID, UserID: userID, Detail: messageID, At: at})
}

// RecordSignal records an offer, answer or candidate handled by the relay.
func (s *Store) RecordSignal(roomID, signalType, senderID string, delivered bool, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.signalsByType[signalType]++
	if !delivered {
		s.undeliveredSignals++
	}
	s.room(roomID).Signals++
	s.appendEntry(Entry{Kind: KindSignal, RoomID: roomID, UserID: senderID, Detail: signalType, At: at})
}

// GetSummary returns a snapshot of all counters. Rooms are sorted by id.
func (s *Store) GetSummary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	signals := make(map[string]int64, len(s.signalsByType))
	for k, v := range s.signalsByType {
		signals[k] = v
	}

	rooms := make([]RoomStats, 0, len(s.rooms))
	for _, stats := range s.rooms {
		rooms = append(rooms, *stats)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].RoomID < rooms[j].RoomID
	})

	return Summary{
		RoomsCreated:       s.roomsCreated,
		Joins:              s.joins,
		Leaves:             s.leaves,
		ChatMessages:       s.chatMessages,
		SignalsByType:      signals,
		UndeliveredSignals: s.undeliveredSignals,
		Online:             s.online,
		PeakOnline:         s.peakOnline,
		Rooms:              rooms,
	}
}

// GetRoomStats returns the counters of one room.
func (s *Store) GetRoomStats(roomID string) (*RoomStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, ok := s.rooms[roomID]
	if !ok {
		return nil, false
	}
	out := *stats
	return &out, true
}

// GetRecentEntries returns up to limit of the most recent entries, newest first.
func (s *Store) GetRecentEntries(limit int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]Entry, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.entries[i])
	}
	return out
}
