package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the transport surface the hub writes to. *websocket.Conn wrapped
// by wsConn satisfies it; tests substitute fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// ConnInfo is the immutable identity bound to a connection at handshake time.
type ConnInfo struct {
	ConnID      string
	UserID      string
	Username    string
	IP          string
	DeviceID    string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// wsConn serializes writes to a gorilla connection. Broadcasts from
// concurrent handler goroutines must not interleave frames.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

func (w *wsConn) WriteMessage(messageType int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(messageType, data)
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}
