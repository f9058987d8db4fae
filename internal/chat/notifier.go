package chat

import "sync"

// Notifier wakes every idle outbound duty when the log grows.
//
// Each Broadcast closes the current channel and installs a fresh one, so
// a waiter that fetched the channel before checking for unread bytes
// cannot miss an append that lands between the check and the wait.
type Notifier struct {
	mu sync.Mutex
	ch chan struct{}
}

// NewNotifier creates a notifier with no pending wake-up
func NewNotifier() *Notifier {
	return &Notifier{
		ch: make(chan struct{}),
	}
}

// Wait returns a channel closed by the next Broadcast
func (n *Notifier) Wait() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch
}

// Broadcast wakes all current waiters
func (n *Notifier) Broadcast() {
	n.mu.Lock()
	defer n.mu.Unlock()
	close(n.ch)
	n.ch = make(chan struct{})
}
