package http

import (
	"encoding/json"
	"net/http"

	"github.com/mmuslimabdulj/goat-relay/internal/domain"
	"github.com/mmuslimabdulj/goat-relay/internal/middleware"
	"github.com/mmuslimabdulj/goat-relay/view"
)

// StatusSource reports relay state; *chat.Hub satisfies it
type StatusSource interface {
	Stats() domain.Stats
	Sessions() []domain.SessionInfo
}

type statusResponse struct {
	Stats    domain.Stats         `json:"stats"`
	Sessions []domain.SessionInfo `json:"sessions"`
}

type Handler struct {
	status StatusSource
	ws     http.Handler
}

// NewHandler wires the status pages; ws may be nil to disable /ws
func NewHandler(status StatusSource, ws http.Handler) *Handler {
	return &Handler{
		status: status,
		ws:     ws,
	}
}

// Routes builds the mux with rate limiting on /ws and security headers
// on everything
func (h *Handler) Routes(limiter *middleware.IPRateLimiter) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.HandleStatus)
	mux.HandleFunc("/api/status", h.HandleAPIStatus)

	if h.ws != nil {
		ws := h.ws
		if limiter != nil {
			ws = middleware.RateLimitMiddleware(limiter)(ws)
		}
		mux.Handle("/ws", ws)
	}

	return middleware.SecurityHeaders(mux)
}

// HandleStatus serves the HTML status page
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	component := view.Status(h.status.Stats(), h.status.Sessions())
	component.Render(r.Context(), w)
}

// HandleAPIStatus returns counters and sessions as JSON
func (h *Handler) HandleAPIStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := statusResponse{
		Stats:    h.status.Stats(),
		Sessions: h.status.Sessions(),
	}
	if resp.Sessions == nil {
		resp.Sessions = []domain.SessionInfo{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(resp)
}
