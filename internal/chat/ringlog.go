package chat

import (
	"fmt"
	"sync"
)

// RingLog is a fixed-capacity circular byte log shared by every session.
//
// Offsets are logical and monotonic: writeOffset counts every byte ever
// appended, and the byte at offset o lives at buf[o % capacity]. The log
// retains the most recent min(writeOffset, capacity) bytes; anything
// older has been overwritten.
type RingLog struct {
	mu          sync.Mutex
	buf         []byte
	writeOffset uint64
}

// NewRingLog creates a log retaining capacity bytes
func NewRingLog(capacity int) *RingLog {
	if capacity <= 0 {
		panic("chat: ring log capacity must be positive")
	}
	return &RingLog{
		buf: make([]byte, capacity),
	}
}

// Capacity returns the size of the retained window in bytes
func (l *RingLog) Capacity() int {
	return len(l.buf)
}

// Append copies p into the log, overwriting the oldest bytes when full.
// If p is longer than the capacity only its trailing capacity bytes are
// kept. It returns the number of bytes written.
func (l *RingLog) Append(p []byte) int {
	if len(p) == 0 {
		return 0
	}
	size := len(l.buf)
	if len(p) > size {
		p = p[len(p)-size:]
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	start := int(l.writeOffset % uint64(size))
	n := copy(l.buf[start:], p)
	copy(l.buf, p[n:])
	l.writeOffset += uint64(len(p))
	return len(p)
}

// WriteOffset returns the total number of bytes ever appended
func (l *RingLog) WriteOffset() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writeOffset
}

// Floor returns the oldest offset still retained
func (l *RingLog) Floor() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.floorLocked()
}

// Len returns the number of retained bytes
func (l *RingLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int(l.writeOffset - l.floorLocked())
}

// ReadRange returns a copy of the bytes at logical offsets [from, to).
// The range must be inside the retained window; callers clamp first.
func (l *RingLog) ReadRange(from, to uint64) []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readLocked(from, to)
}

// Snapshot returns the whole retained window together with the write
// offset it ends at, both observed under the same lock.
func (l *RingLog) Snapshot() ([]byte, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readLocked(l.floorLocked(), l.writeOffset), l.writeOffset
}

// ReadDelta clamps c into the retained window and returns the unread
// bytes [c.Position(), writeOffset) along with the end offset of that
// slice and the number of bytes the clamp skipped. The cursor is not
// advanced; the caller does that once the bytes are delivered.
func (l *RingLog) ReadDelta(c *Cursor) (data []byte, end uint64, skipped uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	skipped = c.Clamp(l.writeOffset, len(l.buf))
	return l.readLocked(c.Position(), l.writeOffset), l.writeOffset, skipped
}

func (l *RingLog) floorLocked() uint64 {
	size := uint64(len(l.buf))
	if l.writeOffset < size {
		return 0
	}
	return l.writeOffset - size
}

// readLocked copies [from, to) in at most two pieces: up to the physical
// end of buf, then from its start. Caller must hold l.mu.
func (l *RingLog) readLocked(from, to uint64) []byte {
	switch {
	case from > to:
		panic(fmt.Sprintf("chat: inverted read range [%d, %d)", from, to))
	case to > l.writeOffset:
		panic(fmt.Sprintf("chat: read range [%d, %d) beyond write offset %d", from, to, l.writeOffset))
	case l.writeOffset-from > uint64(len(l.buf)):
		panic(fmt.Sprintf("chat: read offset %d already overwritten (floor %d)", from, l.floorLocked()))
	}

	n := int(to - from)
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	start := int(from % uint64(len(l.buf)))
	c := copy(out, l.buf[start:])
	copy(out[c:], l.buf)
	return out
}
