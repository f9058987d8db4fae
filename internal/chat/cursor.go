package chat

import (
	"fmt"
	"sync/atomic"
)

// Cursor is one consumer's read position in the log's offset space.
// Only the owning outbound duty moves it; other goroutines may read it.
type Cursor struct {
	position atomic.Uint64
}

// NewCursor creates a cursor at the given offset
func NewCursor(position uint64) *Cursor {
	c := &Cursor{}
	c.position.Store(position)
	return c
}

// Position returns the next unread offset
func (c *Cursor) Position() uint64 {
	return c.position.Load()
}

// Advance moves the cursor forward. Moving backward is a bug.
func (c *Cursor) Advance(position uint64) {
	if cur := c.position.Load(); position < cur {
		panic(fmt.Sprintf("chat: cursor moved backward from %d to %d", cur, position))
	}
	c.position.Store(position)
}

// Clamp pulls a cursor that fell out of the retained window up to the
// oldest retained offset and reports how many bytes were skipped.
// Inside the window it does nothing and returns 0.
func (c *Cursor) Clamp(writeOffset uint64, capacity int) uint64 {
	pos := c.position.Load()
	if pos > writeOffset {
		panic(fmt.Sprintf("chat: cursor %d ahead of write offset %d", pos, writeOffset))
	}
	if writeOffset-pos <= uint64(capacity) {
		return 0
	}
	floor := writeOffset - uint64(capacity)
	c.position.Store(floor)
	return floor - pos
}
