package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// connWrapper serializes writes; gorilla permits only one concurrent writer
// per connection.
type connWrapper struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newConnWrapper(conn *websocket.Conn) *connWrapper {
	return &connWrapper{conn: conn}
}

func (w *connWrapper) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

func (w *connWrapper) Close() error {
	return w.conn.Close()
}
