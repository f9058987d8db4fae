package chat

import (
	"errors"
	"net"

	"github.com/mmuslimabdulj/goat-relay/internal/domain"
)

var (
	// ErrCapacity is returned when the session cap is reached
	ErrCapacity = errors.New("chat: session limit reached")

	// ErrRateLimited is returned when a host connects too often
	ErrRateLimited = errors.New("chat: connection rate exceeded")

	// ErrHubClosed is returned for connections arriving after Shutdown
	ErrHubClosed = errors.New("chat: hub is shut down")

	// ErrListenerClosed is returned by Listener.Accept once closed
	ErrListenerClosed = errors.New("chat: listener closed")
)

// Transport is one client's byte stream
type Transport interface {
	// ReadChunk blocks until at least one byte arrives or the stream fails
	ReadChunk() ([]byte, error)
	// WriteAll writes all of p or returns an error
	WriteAll(p []byte) error
	Close() error
	RemoteAddr() string
}

// Interrupter is implemented by transports that can unblock a pending
// read or write without releasing the underlying connection.
type Interrupter interface {
	Interrupt() error
}

// Listener yields new transports
type Listener interface {
	Accept() (Transport, error)
	Close() error
}

// AdmissionLimiter decides whether a host may open another session
type AdmissionLimiter interface {
	Allow(key string) bool
}

// PersonaSource hands out display identities for sessions
type PersonaSource interface {
	PersonaReleaser
	Generate() *domain.User
}

// PersonaReleaser is used to release persona names when sessions end
type PersonaReleaser interface {
	Release(name string)
}

// hostOf strips the port from a remote address for per-host limits
func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
