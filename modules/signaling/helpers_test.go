package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	domain "github.com/example/webrtc-signaling-relay/domain/signaling"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

var errBrokenPipe = errors.New("broken pipe")

// fakeChannel is an in-memory Channel. Frames pushed to inbound are read by
// the relay; closing inbound ends the read loop with io.EOF.
type fakeChannel struct {
	inbound chan []byte
	done    chan struct{}

	mu         sync.Mutex
	frames     [][]byte
	closed     bool
	failWrites bool
	closeOnce  sync.Once

	gate    chan struct{} // when set, writes wait for it to close
	writing chan struct{} // signalled when a write waits on gate
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		inbound: make(chan []byte, 16),
		done:    make(chan struct{}),
	}
}

func (c *fakeChannel) ReadMessage() (int, []byte, error) {
	select {
	case data, ok := <-c.inbound:
		if !ok {
			return 0, nil, io.EOF
		}
		return websocket.TextMessage, data, nil
	case <-c.done:
		return 0, nil, net.ErrClosed
	}
}

func (c *fakeChannel) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	gate, writing := c.gate, c.writing
	c.mu.Unlock()
	if gate != nil {
		select {
		case writing <- struct{}{}:
		default:
		}
		<-gate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return net.ErrClosed
	}
	if c.failWrites {
		return errBrokenPipe
	}
	c.frames = append(c.frames, append([]byte(nil), data...))
	return nil
}

func (c *fakeChannel) SetWriteDeadline(_ time.Time) error {
	return nil
}

func (c *fakeChannel) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
	})
	return nil
}

func (c *fakeChannel) push(frame string) {
	c.inbound <- []byte(frame)
}

func (c *fakeChannel) setFailWrites(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failWrites = fail
}

// holdWrites makes writes block until release is called. The returned
// channel receives when a write starts waiting.
func (c *fakeChannel) holdWrites() (writing <-chan struct{}, release func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gate = make(chan struct{})
	c.writing = make(chan struct{}, 1)
	gate := c.gate
	return c.writing, func() { close(gate) }
}

func (c *fakeChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// received decodes every frame written to the channel.
func (c *fakeChannel) received() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

// receivedOfType returns the decoded frames whose type matches.
func (c *fakeChannel) receivedOfType(msgType string) []map[string]any {
	var out []map[string]any
	for _, m := range c.received() {
		if m["type"] == msgType {
			out = append(out, m)
		}
	}
	return out
}

type publishedEvent struct {
	kind   string
	roomID string
	userID string
}

// recordingPublisher collects notifications for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) add(ev publishedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) count(kind string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.kind == kind {
			n++
		}
	}
	return n
}

func (p *recordingPublisher) RoomCreated(roomID string) {
	p.add(publishedEvent{kind: "RoomCreated", roomID: roomID})
}

func (p *recordingPublisher) ParticipantJoined(roomID string, participant domain.Participant) {
	p.add(publishedEvent{kind: "ParticipantJoined", roomID: roomID, userID: participant.ID})
}

func (p *recordingPublisher) ParticipantLeft(roomID, userID string) {
	p.add(publishedEvent{kind: "ParticipantLeft", roomID: roomID, userID: userID})
}

func (p *recordingPublisher) ChatMessageRelayed(roomID, _ string, userID string) {
	p.add(publishedEvent{kind: "ChatMessageRelayed", roomID: roomID, userID: userID})
}

func (p *recordingPublisher) SignalRelayed(roomID, _ string, senderID, _ string, _ bool) {
	p.add(publishedEvent{kind: "SignalRelayed", roomID: roomID, userID: senderID})
}

// holdingPublisher blocks the ParticipantJoined notification of one user
// until release is closed.
type holdingPublisher struct {
	*recordingPublisher
	userID  string
	held    chan struct{}
	release chan struct{}
}

func newHoldingPublisher(userID string) *holdingPublisher {
	return &holdingPublisher{
		recordingPublisher: &recordingPublisher{},
		userID:             userID,
		held:               make(chan struct{}),
		release:            make(chan struct{}),
	}
}

func (p *holdingPublisher) ParticipantJoined(roomID string, participant domain.Participant) {
	if participant.ID == p.userID {
		close(p.held)
		<-p.release
	}
	p.recordingPublisher.ParticipantJoined(roomID, participant)
}

func waitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(waitFor):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func waitLeaves(t *testing.T, h *Hub) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, h.Wait(ctx))
}
