// Package terminal serves the retro terminal over WebSocket: one Session
// per connection, each with its own screen and interpreter instance, wired
// together by a read-eval-print loop.
package terminal

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antibyte/retrobasic/pkg/auth"
	"github.com/antibyte/retrobasic/pkg/basic"
	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/logger"
	"github.com/antibyte/retrobasic/pkg/screen"
)

// WebSocket tuning values are read from the [Network] section of
// settings.cfg.

func getWriteWait() time.Duration {
	return configuration.GetDuration("Network", "write_wait_timeout", 10*time.Second)
}

func getPongWait() time.Duration {
	return configuration.GetDuration("Network", "pong_timeout", 90*time.Second)
}

func getPingPeriod() time.Duration {
	pongWait := getPongWait()
	return (pongWait * 9) / 10
}

func getMaxMessageSize() int64 {
	return int64(configuration.GetInt("Network", "max_message_size_kb", 16) * 1024)
}

func getMaxChannelBuffer() int {
	return configuration.GetInt("Network", "max_channel_buffer", 256)
}

func getMaxClients() int {
	return configuration.GetInt("Network", "max_clients", 100)
}

// TerminalHandler manages WebSocket connections and terminal sessions.
type TerminalHandler struct {
	store    basic.ProgramStore
	sessions map[string]*Session
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

// NewTerminalHandler creates a handler. store may be nil, which disables
// SAVE/LOAD in the interpreter.
func NewTerminalHandler(store basic.ProgramStore) *TerminalHandler {
	return &TerminalHandler{
		store:    store,
		sessions: make(map[string]*Session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// The session token, not the origin, gates access.
				return true
			},
		},
	}
}

// HandleWebSocket upgrades /ws connections. A valid guest token is required;
// its session ID becomes the terminal session ID.
func (h *TerminalHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenString, err := auth.ExtractTokenFromRequest(r)
	if err != nil {
		logger.WebSocketWarn("WebSocket request without token from %s: %v", r.RemoteAddr, err)
		http.Error(w, "Unauthorized: token missing", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateGuestToken(tokenString)
	if err != nil {
		logger.WebSocketWarn("WebSocket request with invalid token from %s: %v", r.RemoteAddr, err)
		http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
		return
	}

	h.mu.RLock()
	count := len(h.sessions)
	h.mu.RUnlock()
	if count >= getMaxClients() {
		logger.WebSocketWarn("Maximum clients reached, connection rejected: %s", r.RemoteAddr)
		http.Error(w, "Server overloaded", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WebSocketError("WebSocket upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}

	session := newSession(h, claims.SessionID, conn)

	h.mu.Lock()
	// A reconnect replaces any previous session with the same ID.
	if old, exists := h.sessions[claims.SessionID]; exists {
		go old.close()
	}
	h.sessions[claims.SessionID] = session
	h.mu.Unlock()

	logger.Info(logger.AreaSession, "Terminal session started: %s (%s)",
		session.id, r.RemoteAddr)
	session.start()
}

// removeSession drops a finished session from the registry.
func (h *TerminalHandler) removeSession(s *Session) {
	h.mu.Lock()
	if h.sessions[s.id] == s {
		delete(h.sessions, s.id)
	}
	h.mu.Unlock()
	logger.Info(logger.AreaSession, "Terminal session ended: %s", s.id)
}

// SessionCount returns the number of live sessions.
func (h *TerminalHandler) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// ScreenRows reads the configured screen dimensions.
func ScreenRows() int {
	return configuration.GetInt("Screen", "rows", screen.DefaultRows)
}

// ScreenCols reads the configured screen dimensions.
func ScreenCols() int {
	return configuration.GetInt("Screen", "cols", screen.DefaultCols)
}
