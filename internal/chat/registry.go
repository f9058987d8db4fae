package chat

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/mmuslimabdulj/goat-relay/internal/domain"
)

// Registry tracks live sessions until they close
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	max      int // 0 means unlimited
	closed   bool
	wg       sync.WaitGroup
	releaser PersonaReleaser
}

// NewRegistry creates a registry holding at most max sessions (0 = no cap)
func NewRegistry(max int, releaser PersonaReleaser) *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		max:      max,
		releaser: releaser,
	}
}

// Add starts tracking s, or refuses when the cap is reached or the
// registry is closed
func (r *Registry) Add(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrHubClosed
	}
	if r.max > 0 && len(r.sessions) >= r.max {
		return ErrCapacity
	}
	r.sessions[s.ID] = s
	r.wg.Add(1)
	return nil
}

// Remove stops tracking s and releases its persona
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	_, ok := r.sessions[s.ID]
	delete(r.sessions, s.ID)
	r.mu.Unlock()

	// Prevent double release
	if !ok {
		return
	}
	if r.releaser != nil {
		r.releaser.Release(s.User.PersonaName)
	}
	r.wg.Done()
}

// ActiveCount returns the number of live sessions
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Max returns the session cap, 0 when unlimited
func (r *Registry) Max() int {
	return r.max
}

// Sessions returns live sessions, oldest first
func (r *Registry) Sessions() []domain.SessionInfo {
	r.mu.RLock()
	infos := make([]domain.SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		infos = append(infos, s.Info())
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ConnectedAt.Before(infos[j].ConnectedAt)
	})
	return infos
}

// Close refuses further sessions
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// Wait blocks until every tracked session was removed
func (r *Registry) Wait() {
	r.wg.Wait()
}
