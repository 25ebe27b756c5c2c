// Package server implements the streaming transport binding: long-lived
// SSE connections tracked in a session registry, plus the out-of-band
// message endpoint that routes frames to a live session.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/FreePeak/db-mcp-gateway/internal/domain"
	"github.com/FreePeak/db-mcp-gateway/internal/infrastructure/logging"
)

const defaultEventBufferSize = 100

// MessageHandler processes one inbound protocol frame and returns the
// reply, or nil when the frame is a notification.
type MessageHandler func(ctx context.Context, rawMessage json.RawMessage) interface{}

// SSEServer accepts streaming connections and delivers out-of-band
// messages to them. It owns no session state itself; all of it lives in
// the registry.
type SSEServer struct {
	registry        *SessionRegistry
	handler         MessageHandler
	logger          *logging.Logger
	messageEndpoint string
	bufferSize      int
}

// SSEOption defines a function type for configuring SSEServer
type SSEOption func(*SSEServer)

// WithMessageEndpoint sets the path announced to clients for out-of-band messages
func WithMessageEndpoint(endpoint string) SSEOption {
	return func(s *SSEServer) {
		s.messageEndpoint = endpoint
	}
}

// WithBufferSize sets the per-session event queue size
func WithBufferSize(size int) SSEOption {
	return func(s *SSEServer) {
		if size > 0 {
			s.bufferSize = size
		}
	}
}

// WithLogger sets the operational logger
func WithLogger(logger *logging.Logger) SSEOption {
	return func(s *SSEServer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSSEServer creates a new SSE server bound to a session registry and
// a message handler.
func NewSSEServer(registry *SessionRegistry, handler MessageHandler, opts ...SSEOption) *SSEServer {
	s := &SSEServer{
		registry:        registry,
		handler:         handler,
		logger:          logging.Default(),
		messageEndpoint: "/stream-post",
		bufferSize:      defaultEventBufferSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// HandleSSE accepts a new streaming connection. It creates a session,
// starts the transport, announces the out-of-band endpoint for this
// session, and pumps queued events until the client goes away.
func (s *SSEServer) HandleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := newSSESession(w, r.UserAgent(), s.bufferSize)
	if err != nil {
		s.logger.Error("session setup failed", logging.Fields{"error": err.Error()})
		WriteError(w, domain.NewSetupError("streaming unsupported by connection"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	session.flusher.Flush()

	// The transport is live from here on, so the session may be looked up.
	s.registry.Add(session)
	defer func() {
		s.registry.Remove(session.ID())
		session.Close()
		s.logger.Info("session closed", logging.Fields{"session": session.ID()})
	}()

	s.logger.Info("session opened", logging.Fields{
		"session":   session.ID(),
		"userAgent": session.userAgent,
	})

	fmt.Fprintf(w, "event: connected\ndata: {\"sessionId\": %q}\n\n", session.ID())
	fmt.Fprintf(w, "event: endpoint\ndata: %s?sessionId=%s\n\n", s.messageEndpoint, session.ID())
	session.flusher.Flush()

	for {
		select {
		case event := <-session.eventQueue:
			if _, err := fmt.Fprint(w, event); err != nil {
				s.logger.Warn("session write failed", logging.Fields{
					"session": session.ID(),
					"error":   err.Error(),
				})
				return
			}
			session.flusher.Flush()
		case <-r.Context().Done():
			return
		case <-session.Closed():
			return
		}
	}
}

// HandleMessage delivers an out-of-band frame to the session named by the
// sessionId routing parameter. Unknown sessions are rejected, never
// created implicitly.
func (s *SSEServer) HandleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		WriteError(w, domain.NewMissingSessionIDError())
		return
	}

	session, ok := s.registry.Get(sessionID)
	if !ok {
		WriteError(w, domain.NewUnknownSessionError(sessionID))
		return
	}

	var rawMessage json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&rawMessage); err != nil {
		WriteError(w, domain.NewInvalidInputError([]domain.FieldViolation{
			{Field: "", Message: "malformed message body: " + err.Error()},
		}))
		return
	}

	response := s.handler(r.Context(), rawMessage)
	if response == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	eventData, err := json.Marshal(response)
	if err != nil {
		WriteError(w, domain.NewSetupError("encoding response failed"))
		return
	}

	if err := session.Enqueue(fmt.Sprintf("event: message\ndata: %s\n\n", eventData)); err != nil {
		s.logger.Warn("dropping event", logging.Fields{
			"session": sessionID,
			"error":   err.Error(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(response)
}

// Shutdown closes every live session.
func (s *SSEServer) Shutdown() {
	s.registry.CloseAll()
}
