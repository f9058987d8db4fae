package tcp

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mmuslimabdulj/goat-relay/internal/chat"
	"github.com/mmuslimabdulj/goat-relay/internal/domain"
)

// Conn adapts a net.Conn to chat.Transport
type Conn struct {
	conn net.Conn
	buf  []byte

	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps c; reads return at most chunkSize bytes
func NewConn(c net.Conn, chunkSize int) *Conn {
	if chunkSize <= 0 {
		chunkSize = domain.DefaultChunkSize
	}
	return &Conn{
		conn: c,
		buf:  make([]byte, chunkSize),
	}
}

// ReadChunk blocks for the next chunk from the peer. The returned slice
// is a copy and stays valid after the next call.
func (c *Conn) ReadChunk() ([]byte, error) {
	n, err := c.conn.Read(c.buf)
	if n > 0 {
		chunk := make([]byte, n)
		copy(chunk, c.buf[:n])
		// Deliver what arrived; the error resurfaces on the next read
		return chunk, nil
	}
	return nil, err
}

// WriteAll writes p fully or fails
func (c *Conn) WriteAll(p []byte) error {
	for len(p) > 0 {
		n, err := c.conn.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

// Interrupt unblocks pending reads and writes without closing the socket
func (c *Conn) Interrupt() error {
	return c.conn.SetDeadline(time.Unix(1, 0))
}

// Close releases the socket. Safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// RemoteAddr returns the peer address
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Listener accepts TCP connections as chat transports
type Listener struct {
	ln        net.Listener
	chunkSize int
}

// Listen binds addr ("host:port", empty host means all interfaces)
func Listen(addr string, chunkSize int) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return NewListener(ln, chunkSize), nil
}

// NewListener wraps an existing net.Listener
func NewListener(ln net.Listener, chunkSize int) *Listener {
	return &Listener{ln: ln, chunkSize: chunkSize}
}

// Accept waits for the next connection
func (l *Listener) Accept() (chat.Transport, error) {
	c, err := l.ln.Accept()
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, chat.ErrListenerClosed
		}
		return nil, err
	}
	return NewConn(c, l.chunkSize), nil
}

// Close stops accepting
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Addr returns the bound address
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}
