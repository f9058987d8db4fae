package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/mmuslimabdulj/goat-relay/internal/chat"
)

// Listener turns WebSocket upgrades into chat transports. Mount it as an
// http.Handler and hand it to chat.Hub.Serve.
type Listener struct {
	upgrader  websocket.Upgrader
	chunkSize int
	conns     chan *Conn
	done      chan struct{}
	closeOnce sync.Once
}

// NewListener creates a listener accepting the given origins ("*" allows
// any; requests without an Origin header are always allowed)
func NewListener(allowedOrigins []string, chunkSize int) *Listener {
	return &Listener{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return isOriginAllowed(allowedOrigins, r.Header.Get("Origin"))
			},
		},
		chunkSize: chunkSize,
		conns:     make(chan *Conn),
		done:      make(chan struct{}),
	}
}

// ServeHTTP upgrades the request and queues the connection for Accept
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case <-l.done:
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		return
	}

	c := NewConn(conn, l.chunkSize)
	select {
	case l.conns <- c:
	case <-l.done:
		c.Close()
	}
}

// Accept waits for the next upgraded connection
func (l *Listener) Accept() (chat.Transport, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.done:
		return nil, chat.ErrListenerClosed
	}
}

// Close stops handing out connections; pending upgrades are closed
func (l *Listener) Close() error {
	l.closeOnce.Do(func() { close(l.done) })
	return nil
}

// isOriginAllowed checks if the origin is in the allowed list
func isOriginAllowed(allowed []string, origin string) bool {
	// Empty origin is allowed (non-browser clients)
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || origin == a {
			return true
		}
	}
	return false
}
