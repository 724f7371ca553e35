package signaling

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// Channel is the bidirectional message connection of one user.
// *websocket.Conn from github.com/gofiber/contrib/websocket satisfies it.
type Channel interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// peer is a connection record owned by Hub.
type peer struct {
	id     string
	ch     Channel
	mu     sync.Mutex // serializes writes
	closed atomic.Bool
	once   sync.Once
}

func newPeer(id string, ch Channel) *peer {
	return &peer{id: id, ch: ch}
}

func (p *peer) write(data []byte, timeout time.Duration) error {
	if p.closed.Load() {
		return ErrPeerClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeLocked(data, timeout)
}

// writeLocked writes with p.mu already held.
func (p *peer) writeLocked(data []byte, timeout time.Duration) error {
	if p.closed.Load() {
		return ErrPeerClosed
	}
	if timeout > 0 {
		if err := p.ch.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	return p.ch.WriteMessage(websocket.TextMessage, data)
}

// close marks the peer closed and closes its channel once.
func (p *peer) close() {
	p.closed.Store(true)
	p.once.Do(func() {
		_ = p.ch.Close()
	})
}
