package ws

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mmuslimabdulj/goat-relay/internal/domain"
)

var errInterrupted = errors.New("ws: connection interrupted")

// Conn adapts a websocket connection to chat.Transport. Message
// boundaries are not preserved: inbound messages are read as one byte
// stream in bounded chunks, and every WriteAll is one binary message.
type Conn struct {
	conn      *websocket.Conn
	chunkSize int

	// reader is the message being drained; only the reading duty uses it
	reader io.Reader

	writeMu     sync.Mutex
	interrupted atomic.Bool
	closeOnce   sync.Once
	closeErr    error
}

// NewConn wraps an upgraded websocket connection
func NewConn(conn *websocket.Conn, chunkSize int) *Conn {
	if chunkSize <= 0 {
		chunkSize = domain.DefaultChunkSize
	}
	return &Conn{
		conn:      conn,
		chunkSize: chunkSize,
	}
}

// ReadChunk returns up to chunkSize bytes of the current message,
// moving on to the next message once it is drained
func (c *Conn) ReadChunk() ([]byte, error) {
	for {
		if c.reader == nil {
			_, r, err := c.conn.NextReader()
			if err != nil {
				return nil, err
			}
			c.reader = r
		}

		buf := make([]byte, c.chunkSize)
		n, err := c.reader.Read(buf)
		if n > 0 {
			return buf[:n], nil
		}
		if err == io.EOF {
			c.reader = nil
			continue
		}
		if err != nil {
			return nil, err
		}
	}
}

// WriteAll sends p as a single binary message
func (c *Conn) WriteAll(p []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(domain.WriteWait))
	if c.interrupted.Load() {
		return errInterrupted
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, p)
}

// Interrupt fails pending and future I/O without closing the socket
func (c *Conn) Interrupt() error {
	c.interrupted.Store(true)
	return c.conn.NetConn().SetDeadline(time.Unix(1, 0))
}

// Close sends a best-effort close frame and releases the socket
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// RemoteAddr returns the peer address
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
