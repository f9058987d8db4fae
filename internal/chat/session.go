package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mmuslimabdulj/goat-relay/internal/domain"
)

// Session is one client connection: an inbound duty feeding the shared
// log and an outbound duty streaming it back out. A failure in either
// duty ends both.
type Session struct {
	ID          uuid.UUID
	User        *domain.User
	ConnectedAt time.Time

	hub       *Hub
	transport Transport
	cursor    Cursor
	state     atomic.Int32
	logger    *slog.Logger

	cancel   context.CancelFunc
	stopOnce sync.Once
	reason   error
	done     chan struct{}
}

func newSession(hub *Hub, t Transport, user *domain.User) *Session {
	s := &Session{
		ID:          uuid.New(),
		User:        user,
		ConnectedAt: time.Now(),
		hub:         hub,
		transport:   t,
		done:        make(chan struct{}),
	}
	s.logger = hub.logger.With(
		"session", s.ID.String(),
		"persona", user.PersonaName,
		"remote", t.RemoteAddr(),
	)
	return s
}

// State returns the current lifecycle stage
func (s *Session) State() domain.SessionState {
	return domain.SessionState(s.state.Load())
}

// Done is closed once both duties stopped and the transport is released
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns what ended the session, nil while it is still running
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.reason
	default:
		return nil
	}
}

// Info returns a snapshot for the status surfaces
func (s *Session) Info() domain.SessionInfo {
	return domain.SessionInfo{
		ID:           s.ID.String(),
		PersonaName:  s.User.PersonaName,
		PersonaColor: s.User.PersonaColor,
		RemoteAddr:   s.transport.RemoteAddr(),
		State:        s.State(),
		Position:     s.cursor.Position(),
		ConnectedAt:  s.ConnectedAt,
	}
}

// run drives the session until both duties have returned. parent ending
// (hub shutdown) stops the session the same way a duty failure does.
func (s *Session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	unblock := context.AfterFunc(ctx, s.interrupt)

	s.logger.Info("session connected")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.stop("inbound", s.inbound(ctx))
	}()
	go func() {
		defer wg.Done()
		s.stop("outbound", s.outbound(ctx))
	}()
	wg.Wait()

	unblock()
	cancel()
	if err := s.transport.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Debug("transport close failed", "error", err)
	}
	s.hub.registry.Remove(s)
	s.state.Store(int32(domain.SessionClosed))
	s.logger.Info("session closed", "reason", describe(s.reason))
	close(s.done)
}

// stop records the first failure, moves to CLOSING and cancels the
// sibling duty.
func (s *Session) stop(duty string, err error) {
	s.stopOnce.Do(func() {
		s.reason = err
		s.state.Store(int32(domain.SessionClosing))
		s.logger.Debug("session closing", "duty", duty, "error", err)
		s.cancel()
	})
}

func (s *Session) interrupt() {
	if in, ok := s.transport.(Interrupter); ok {
		if err := in.Interrupt(); err == nil {
			return
		}
	}
	s.transport.Close()
}

// inbound reads chunks from the peer and publishes them to the hub
func (s *Session) inbound(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := s.transport.ReadChunk()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if len(chunk) == 0 {
			continue
		}
		s.hub.Publish(chunk)
	}
}

// outbound delivers the history, then streams every new byte. The wait
// channel is fetched before the unread range is computed so an append
// in between still wakes us.
func (s *Session) outbound(ctx context.Context) error {
	history, offset := s.hub.log.Snapshot()
	if len(history) > 0 {
		if err := s.transport.WriteAll(history); err != nil {
			return fmt.Errorf("write history: %w", err)
		}
	}
	s.cursor.Advance(offset)
	s.state.CompareAndSwap(int32(domain.SessionConnected), int32(domain.SessionStreaming))

	for {
		wake := s.hub.notifier.Wait()
		data, end, skipped := s.hub.log.ReadDelta(&s.cursor)
		if skipped > 0 {
			s.hub.overrun.Add(skipped)
			s.logger.Debug("cursor overrun", "skipped", skipped)
		}
		if len(data) == 0 {
			select {
			case <-wake:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := s.transport.WriteAll(data); err != nil {
			return fmt.Errorf("write: %w", err)
		}
		s.cursor.Advance(end)
	}
}

func describe(err error) string {
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, io.EOF):
		return "peer closed"
	case errors.Is(err, context.Canceled):
		return "shutdown"
	default:
		return err.Error()
	}
}
