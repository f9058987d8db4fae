package chat

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmuslimabdulj/goat-relay/internal/domain"
	"github.com/stretchr/testify/require"
)

var errBrokenPipe = errors.New("broken pipe")

// pipeTransport is an in-memory Transport. Tests push client bytes with
// send and inspect what the server wrote with output.
type pipeTransport struct {
	addr string
	in   chan []byte

	mu  sync.Mutex
	out bytes.Buffer

	// gate, when set, makes WriteAll signal entered and block until gate
	// is closed
	gate    chan struct{}
	entered chan struct{}

	failWrites atomic.Bool
	closes     atomic.Int32
	closed     chan struct{}
	closeOnce  sync.Once
}

func newPipe(addr string) *pipeTransport {
	return &pipeTransport{
		addr:   addr,
		in:     make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (p *pipeTransport) send(s string) {
	p.in <- []byte(s)
}

// hangUp makes the next read report that the peer closed
func (p *pipeTransport) hangUp() {
	close(p.in)
}

func (p *pipeTransport) output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.String()
}

func (p *pipeTransport) ReadChunk() ([]byte, error) {
	select {
	case chunk, ok := <-p.in:
		if !ok {
			return nil, io.EOF
		}
		return chunk, nil
	case <-p.closed:
		return nil, errBrokenPipe
	}
}

func (p *pipeTransport) WriteAll(b []byte) error {
	if p.gate != nil {
		select {
		case p.entered <- struct{}{}:
		default:
		}
		select {
		case <-p.gate:
		case <-p.closed:
			return errBrokenPipe
		}
	}
	select {
	case <-p.closed:
		return errBrokenPipe
	default:
	}
	if p.failWrites.Load() {
		return errBrokenPipe
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out.Write(b)
	return nil
}

func (p *pipeTransport) Close() error {
	p.closes.Add(1)
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

func (p *pipeTransport) RemoteAddr() string {
	return p.addr
}

func (p *pipeTransport) isClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

// interruptiblePipe unblocks I/O through Interrupt, leaving the final
// Close to the session teardown
type interruptiblePipe struct {
	*pipeTransport
	interrupts atomic.Int32
	abort      chan struct{}
	abortOnce  sync.Once
}

func newInterruptiblePipe(addr string) *interruptiblePipe {
	return &interruptiblePipe{
		pipeTransport: newPipe(addr),
		abort:         make(chan struct{}),
	}
}

func (p *interruptiblePipe) Interrupt() error {
	p.interrupts.Add(1)
	p.abortOnce.Do(func() { close(p.abort) })
	return nil
}

func (p *interruptiblePipe) ReadChunk() ([]byte, error) {
	select {
	case chunk, ok := <-p.in:
		if !ok {
			return nil, io.EOF
		}
		return chunk, nil
	case <-p.abort:
		return nil, errors.New("i/o timeout")
	case <-p.closed:
		return nil, errBrokenPipe
	}
}

// chanListener hands out queued transports
type chanListener struct {
	conns     chan Transport
	closed    chan struct{}
	closeOnce sync.Once
}

func newChanListener() *chanListener {
	return &chanListener{
		conns:  make(chan Transport),
		closed: make(chan struct{}),
	}
}

func (l *chanListener) Accept() (Transport, error) {
	select {
	case t := <-l.conns:
		return t, nil
	case <-l.closed:
		return nil, ErrListenerClosed
	}
}

func (l *chanListener) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func waitOutput(t *testing.T, p *pipeTransport, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return p.output() == want
	}, 2*time.Second, 5*time.Millisecond, "output never became %q", want)
}

func waitStreaming(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		count := 0
		for _, info := range h.Sessions() {
			if info.State == domain.SessionStreaming {
				count++
			}
		}
		return count == n
	}, 2*time.Second, 5*time.Millisecond)
}
