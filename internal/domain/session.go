package domain

import "time"

// SessionState is the lifecycle stage of one connection
type SessionState int32

const (
	// SessionConnected: transport accepted, history not yet delivered
	SessionConnected SessionState = iota
	// SessionStreaming: history delivered, relaying live bytes
	SessionStreaming
	// SessionClosing: one duty failed, waiting for the other to stop
	SessionClosing
	// SessionClosed: both duties stopped and the transport is released
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionConnected:
		return "connected"
	case SessionStreaming:
		return "streaming"
	case SessionClosing:
		return "closing"
	case SessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MarshalText lets the state render as its name in JSON
func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SessionInfo is a point-in-time view of a live session
type SessionInfo struct {
	ID           string       `json:"id"`
	PersonaName  string       `json:"persona_name"`
	PersonaColor string       `json:"persona_color"`
	RemoteAddr   string       `json:"remote_addr"`
	State        SessionState `json:"state"`
	Position     uint64       `json:"position"`
	ConnectedAt  time.Time    `json:"connected_at"`
}

// Stats summarizes the shared log and session counters
type Stats struct {
	Capacity       int    `json:"capacity"`
	WriteOffset    uint64 `json:"write_offset"`
	Retained       int    `json:"retained"`
	ActiveSessions int    `json:"active_sessions"`
	MaxSessions    int    `json:"max_sessions"`
	Accepted       uint64 `json:"accepted"`
	Rejected       uint64 `json:"rejected"`
	OverrunBytes   uint64 `json:"overrun_bytes"`
}
