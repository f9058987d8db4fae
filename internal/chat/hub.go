package chat

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/mmuslimabdulj/goat-relay/internal/domain"
	"github.com/mmuslimabdulj/goat-relay/internal/usecase"
)

// Options configures a Hub
type Options struct {
	// LogCapacity is the size of the retained window in bytes
	LogCapacity int

	// MaxSessions caps simultaneous sessions; 0 disables the cap
	MaxSessions int

	// Limiter gates new connections per remote host; nil allows all
	Limiter AdmissionLimiter

	// Personas names sessions; defaults to a fresh PersonaGenerator
	Personas PersonaSource
}

// Hub owns the shared log, its notifier and the session registry
type Hub struct {
	log      *RingLog
	notifier *Notifier
	registry *Registry
	personas PersonaSource
	limiter  AdmissionLimiter
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	accepted atomic.Uint64
	rejected atomic.Uint64
	overrun  atomic.Uint64
}

// NewHub creates a Hub
func NewHub(opts Options, logger *slog.Logger) *Hub {
	if opts.LogCapacity <= 0 {
		opts.LogCapacity = domain.DefaultLogCapacity
	}
	if opts.Personas == nil {
		opts.Personas = usecase.NewPersonaGenerator()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		log:      NewRingLog(opts.LogCapacity),
		notifier: NewNotifier(),
		registry: NewRegistry(opts.MaxSessions, opts.Personas),
		personas: opts.Personas,
		limiter:  opts.Limiter,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Publish appends p to the log and then wakes every waiting session
func (h *Hub) Publish(p []byte) int {
	n := h.log.Append(p)
	if n > 0 {
		h.notifier.Broadcast()
	}
	return n
}

// Accept starts a session on t. A rejected transport is closed before
// the error is returned.
func (h *Hub) Accept(t Transport) error {
	if err := h.admit(t); err != nil {
		h.rejected.Add(1)
		t.Close()
		return err
	}
	h.accepted.Add(1)
	return nil
}

func (h *Hub) admit(t Transport) error {
	if h.ctx.Err() != nil {
		return ErrHubClosed
	}
	if h.limiter != nil && !h.limiter.Allow(hostOf(t.RemoteAddr())) {
		return ErrRateLimited
	}

	user := h.personas.Generate()
	s := newSession(h, t, user)
	if err := h.registry.Add(s); err != nil {
		h.personas.Release(user.PersonaName)
		return err
	}
	go s.run(h.ctx)
	return nil
}

// Serve accepts transports from ln until ln is closed or ctx ends.
// Transient accept errors are retried with a capped backoff.
func (h *Hub) Serve(ctx context.Context, ln Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var backoff time.Duration
	for {
		t, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrListenerClosed) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff = min(backoff*2, domain.MaxAcceptBackoff)
			}
			h.logger.Warn("accept failed", "error", err, "retry_in", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		backoff = 0

		if err := h.Accept(t); err != nil {
			h.logger.Warn("connection rejected", "remote", t.RemoteAddr(), "error", err)
		}
	}
}

// Shutdown stops every session and waits for them to close
func (h *Hub) Shutdown(ctx context.Context) error {
	h.registry.Close()
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.registry.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ActiveCount returns the number of live sessions
func (h *Hub) ActiveCount() int {
	return h.registry.ActiveCount()
}

// Sessions returns the live sessions, oldest first
func (h *Hub) Sessions() []domain.SessionInfo {
	return h.registry.Sessions()
}

// Stats returns log and session counters
func (h *Hub) Stats() domain.Stats {
	return domain.Stats{
		Capacity:       h.log.Capacity(),
		WriteOffset:    h.log.WriteOffset(),
		Retained:       h.log.Len(),
		ActiveSessions: h.registry.ActiveCount(),
		MaxSessions:    h.registry.Max(),
		Accepted:       h.accepted.Load(),
		Rejected:       h.rejected.Load(),
		OverrunBytes:   h.overrun.Load(),
	}
}
