package domain

import "time"

// ==== Log Constants ====

// DefaultLogCapacity is the size in bytes of the retained chat window
const DefaultLogCapacity = 1024

// DefaultChunkSize bounds a single transport read
const DefaultChunkSize = 256

// ==== Session Constants ====

// DefaultMaxSessions caps simultaneous sessions (0 disables the cap)
const DefaultMaxSessions = 1023

// ==== Rate Limit Constants ====

const (
	// DefaultAcceptRate is the per-host connection rate (conn/sec)
	DefaultAcceptRate = 5

	// DefaultAcceptBurst is the per-host connection burst
	DefaultAcceptBurst = 10

	// DefaultRateLimitWS is the rate limit for WebSocket upgrades (req/sec)
	DefaultRateLimitWS = 5
)

// ==== Timing Constants ====

const (
	// WriteWait is the time allowed to write one WebSocket frame
	WriteWait = 10 * time.Second

	// ShutdownGracePeriod bounds graceful shutdown of the whole server
	ShutdownGracePeriod = 30 * time.Second

	// MaxAcceptBackoff caps the retry delay after a transient accept error
	MaxAcceptBackoff = time.Second
)
