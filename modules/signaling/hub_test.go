package signaling

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestHub() (*Hub, *recordingPublisher) {
	pub := &recordingPublisher{}
	h := NewHub(&mockLogger{}, 0)
	h.SetPublisher(pub)
	return h, pub
}

// assertConsistent checks that every indexed user is registered and is a
// member of its indexed room, and that every room member is indexed to it.
func assertConsistent(t *testing.T, h *Hub) {
	t.Helper()
	h.mu.RLock()
	defer h.mu.RUnlock()

	assert.Len(t, h.userRoom, len(h.peers), "index entries vs registered connections")
	for userID, roomID := range h.userRoom {
		_, registered := h.peers[userID]
		assert.True(t, registered, "indexed user %s has no connection", userID)
		found := false
		for _, p := range h.registry.ListParticipants(roomID) {
			if p.ID == userID {
				found = true
			}
		}
		assert.True(t, found, "indexed user %s missing from room %s", userID, roomID)
	}
	for _, room := range h.registry.ListRooms() {
		for _, p := range h.registry.ListParticipants(room.ID) {
			assert.Equal(t, room.ID, h.userRoom[p.ID], "member %s not indexed to %s", p.ID, room.ID)
		}
	}
}

func TestHub_JoinReturnsExistingParticipants(t *testing.T) {
	h, pub := newTestHub()

	existing := h.Join("a", "standup", "Alice", newFakeChannel())
	assert.Empty(t, existing)

	existing = h.Join("b", "standup", "Bob", newFakeChannel())
	require.Len(t, existing, 1)
	assert.Equal(t, "a", existing[0].ID)
	assert.Equal(t, "Alice", existing[0].Name)

	existing = h.Join("c", "standup", "Carol", newFakeChannel())
	require.Len(t, existing, 2)
	assert.Equal(t, "a", existing[0].ID)
	assert.Equal(t, "b", existing[1].ID)

	assert.Equal(t, 1, pub.count("RoomCreated"))
	assert.Equal(t, 3, pub.count("ParticipantJoined"))
	assertConsistent(t, h)
}

func TestHub_JoinExchangesNoticesWithEarlierMembers(t *testing.T) {
	h, _ := newTestHub()
	alice := newFakeChannel()
	bob := newFakeChannel()
	carol := newFakeChannel()
	h.Join("a", "standup", "Alice", alice)
	h.Join("b", "standup", "Bob", bob)
	h.Join("c", "standup", "Carol", carol)

	senders := func(ch *fakeChannel) []any {
		var out []any
		for _, m := range ch.receivedOfType(TypeParticipantJoined) {
			out = append(out, m["senderId"])
		}
		return out
	}
	assert.Equal(t, []any{"b", "c"}, senders(alice))
	assert.Equal(t, []any{"a", "c"}, senders(bob))
	assert.Equal(t, []any{"a", "b"}, senders(carol), "replay follows join order")

	replay := carol.receivedOfType(TypeParticipantJoined)[0]
	assert.Equal(t, map[string]any{
		"type":       "participantJoined",
		"senderId":   "a",
		"senderName": "Alice",
		"roomId":     "standup",
	}, replay)
}

func TestHub_DelayedJoinerIsAnnouncedOnce(t *testing.T) {
	h, _ := newTestHub()
	pub := newHoldingPublisher("a")
	h.SetPublisher(pub)
	alice := newFakeChannel()
	bob := newFakeChannel()

	// Alice is registered but her join has not finished when Bob arrives.
	aliceDone := make(chan struct{})
	go func() {
		h.Join("a", "standup", "Alice", alice)
		close(aliceDone)
	}()
	waitClosed(t, pub.held, "alice to be registered")

	existing := h.Join("b", "standup", "Bob", bob)
	require.Len(t, existing, 1)
	close(pub.release)
	waitClosed(t, aliceDone, "alice to finish joining")

	joined := bob.receivedOfType(TypeParticipantJoined)
	require.Len(t, joined, 1, "bob learns about alice exactly once")
	assert.Equal(t, "a", joined[0]["senderId"])

	joined = alice.receivedOfType(TypeParticipantJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "b", joined[0]["senderId"])
}

func TestHub_ReplayPrecedesConcurrentLeave(t *testing.T) {
	h, _ := newTestHub()
	alice := newFakeChannel()
	bob := newFakeChannel()
	h.Join("a", "standup", "Alice", alice)

	writing, release := bob.holdWrites()
	bobDone := make(chan struct{})
	go func() {
		h.Join("b", "standup", "Bob", bob)
		close(bobDone)
	}()
	waitClosed(t, writing, "bob's replay to start")

	// Alice leaves while Bob's roster, which still lists her, is in flight.
	aliceGone := make(chan struct{})
	go func() {
		h.Leave("a")
		close(aliceGone)
	}()
	require.Eventually(t, func() bool {
		_, ok := h.RoomOf("a")
		return !ok
	}, waitFor, tick)
	release()
	waitClosed(t, bobDone, "bob to finish joining")
	waitClosed(t, aliceGone, "alice to leave")

	var kinds []any
	for _, m := range bob.received() {
		kinds = append(kinds, m["type"])
		assert.Equal(t, "a", m["senderId"])
	}
	assert.Equal(t, []any{TypeParticipantJoined, TypeParticipantLeft}, kinds)
}

func TestHub_ConcurrentJoinsSeeEachOtherOnce(t *testing.T) {
	h, _ := newTestHub()
	const n = 20
	chans := make([]*fakeChannel, n)

	var g errgroup.Group
	for i := range chans {
		chans[i] = newFakeChannel()
		g.Go(func() error {
			userID := fmt.Sprintf("user-%d", i)
			h.Join(userID, "standup", userID, chans[i])
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for i, ch := range chans {
		seen := make(map[any]int)
		for _, m := range ch.receivedOfType(TypeParticipantJoined) {
			seen[m["senderId"]]++
		}
		assert.Len(t, seen, n-1, "user-%d peers", i)
		assert.Zero(t, seen[fmt.Sprintf("user-%d", i)], "user-%d announced to itself", i)
		for sender, count := range seen {
			assert.Equal(t, 1, count, "user-%d heard about %v", i, sender)
		}
	}
	assertConsistent(t, h)
}

func TestHub_WaitHonorsContext(t *testing.T) {
	h, _ := newTestHub()
	require.NoError(t, h.Wait(context.Background()))

	h.mu.Lock()
	h.leaves = 1
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := h.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHub_UnregisterOnce(t *testing.T) {
	h, _ := newTestHub()
	h.Join("a", "standup", "Alice", newFakeChannel())

	roomID, ok := h.Unregister("a")
	assert.True(t, ok)
	assert.Equal(t, "standup", roomID)

	roomID, ok = h.Unregister("a")
	assert.False(t, ok)
	assert.Empty(t, roomID)

	assert.Empty(t, h.ListParticipants("standup"))
	_, exists := h.Room("standup")
	assert.True(t, exists, "rooms are kept after the last participant leaves")
	assertConsistent(t, h)
}

func TestHub_LeaveAnnouncesToRemainingMembers(t *testing.T) {
	h, pub := newTestHub()
	alice := newFakeChannel()
	bob := newFakeChannel()
	h.Join("a", "standup", "Alice", alice)
	h.Join("b", "standup", "Bob", bob)

	assert.True(t, h.Leave("a"))
	assert.False(t, h.Leave("a"))

	left := bob.receivedOfType(TypeParticipantLeft)
	require.Len(t, left, 1)
	assert.Equal(t, "a", left[0]["senderId"])
	assert.Equal(t, "standup", left[0]["roomId"])
	assert.NotContains(t, left[0], "senderName")
	assert.Empty(t, alice.receivedOfType(TypeParticipantLeft))
	assert.Equal(t, 1, pub.count("ParticipantLeft"))
}

func TestHub_Send(t *testing.T) {
	h, _ := newTestHub()
	ch := newFakeChannel()
	h.Register("a", ch)

	assert.True(t, h.Send("a", NewMessage("ping")))
	assert.False(t, h.Send("nobody", NewMessage("ping")))

	got := ch.received()
	require.Len(t, got, 1)
	assert.Equal(t, "ping", got[0]["type"])
}

func TestHub_RegisterOverwrites(t *testing.T) {
	h, _ := newTestHub()
	first := newFakeChannel()
	second := newFakeChannel()

	h.Register("a", first)
	h.Register("a", second)
	h.Send("a", NewMessage("ping"))

	assert.Empty(t, first.received())
	assert.Len(t, second.received(), 1)
	assert.Equal(t, 1, h.ConnectionCount())
}

func TestHub_SendFailureEvictsPeer(t *testing.T) {
	h, pub := newTestHub()
	alice := newFakeChannel()
	bob := newFakeChannel()
	h.Join("a", "standup", "Alice", alice)
	h.Join("b", "standup", "Bob", bob)

	bob.setFailWrites(true)
	assert.False(t, h.Send("b", NewMessage("ping")))
	waitLeaves(t, h)

	_, indexed := h.RoomOf("b")
	assert.False(t, indexed)
	assert.True(t, bob.isClosed(), "evicted channel should be closed")

	left := alice.receivedOfType(TypeParticipantLeft)
	require.Len(t, left, 1)
	assert.Equal(t, "b", left[0]["senderId"])
	assert.Equal(t, 1, pub.count("ParticipantLeft"))

	// The session's own cleanup finds nothing left to do.
	assert.False(t, h.Leave("b"))
	assert.Equal(t, 1, pub.count("ParticipantLeft"))
	assertConsistent(t, h)
}

func TestHub_SendToClosedPeerEvicts(t *testing.T) {
	h, _ := newTestHub()
	alice := newFakeChannel()
	bob := newFakeChannel()
	h.Join("a", "standup", "Alice", alice)
	h.Join("b", "standup", "Bob", bob)

	assert.Equal(t, 2, h.CloseAll())
	assert.False(t, h.Send("b", NewMessage("ping")))
	waitLeaves(t, h)

	_, indexed := h.RoomOf("b")
	assert.False(t, indexed)
	assertConsistent(t, h)
}

func TestHub_BroadcastSurvivesFailedRecipient(t *testing.T) {
	h, _ := newTestHub()
	chans := map[string]*fakeChannel{
		"a": newFakeChannel(),
		"b": newFakeChannel(),
		"c": newFakeChannel(),
		"d": newFakeChannel(),
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		h.Join(id, "standup", id, chans[id])
	}
	chans["b"].setFailWrites(true)

	h.BroadcastToRoom("standup", NewMessage("toggleMute"), "a")
	waitLeaves(t, h)

	assert.Empty(t, chans["a"].receivedOfType("toggleMute"), "excluded sender")
	assert.Len(t, chans["c"].receivedOfType("toggleMute"), 1)
	assert.Len(t, chans["d"].receivedOfType("toggleMute"), 1)

	for _, id := range []string{"a", "c", "d"} {
		assert.Len(t, chans[id].receivedOfType(TypeParticipantLeft), 1, "leave for b delivered to %s", id)
	}
	assert.Len(t, h.ListParticipants("standup"), 3)
	assertConsistent(t, h)
}

func TestHub_BroadcastUnknownRoom(t *testing.T) {
	h, _ := newTestHub()
	ch := newFakeChannel()
	h.Join("a", "standup", "Alice", ch)

	h.BroadcastToRoom("retro", NewMessage("ping"), "")

	assert.Empty(t, ch.received())
}

func TestHub_ConcurrentJoinLeave(t *testing.T) {
	h, pub := newTestHub()

	var g errgroup.Group
	for i := 0; i < 50; i++ {
		userID := fmt.Sprintf("user-%d", i)
		roomID := fmt.Sprintf("room-%d", i%5)
		g.Go(func() error {
			h.Join(userID, roomID, userID, newFakeChannel())
			h.BroadcastToRoom(roomID, NewMessage("toggleVideo"), userID)
			if len(userID)%2 == 0 {
				h.Leave(userID)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	waitLeaves(t, h)

	assertConsistent(t, h)
	assert.Equal(t, 5, h.RoomCount())
	assert.Equal(t, 5, pub.count("RoomCreated"))
	assert.Equal(t, 50, pub.count("ParticipantJoined"))
}
