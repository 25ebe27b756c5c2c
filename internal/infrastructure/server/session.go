package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FreePeak/db-mcp-gateway/internal/domain"
)

// ErrResponseWriterNotFlusher is returned when the underlying connection
// cannot stream events.
var ErrResponseWriterNotFlusher = errors.New("response writer does not support flushing")

// sseSession represents one active SSE connection. The identifier is
// generated at construction and never reused while the session lives.
type sseSession struct {
	writer     http.ResponseWriter
	flusher    http.Flusher
	eventQueue chan string
	done       chan struct{}
	closeOnce  sync.Once
	id         string
	userAgent  string
	createdAt  time.Time
}

func newSSESession(w http.ResponseWriter, userAgent string, bufferSize int) (*sseSession, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrResponseWriterNotFlusher
	}

	return &sseSession{
		writer:     w,
		flusher:    flusher,
		eventQueue: make(chan string, bufferSize),
		done:       make(chan struct{}),
		id:         uuid.New().String(),
		userAgent:  userAgent,
		createdAt:  time.Now(),
	}, nil
}

// ID returns the session identifier.
func (s *sseSession) ID() string {
	return s.id
}

// Info returns the session metadata.
func (s *sseSession) Info() domain.SessionInfo {
	return domain.SessionInfo{
		ID:        s.id,
		UserAgent: s.userAgent,
		CreatedAt: s.createdAt,
	}
}

// Close marks the session terminated. Safe to call more than once; only
// the first call has effect.
func (s *sseSession) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Closed reports session teardown.
func (s *sseSession) Closed() <-chan struct{} {
	return s.done
}

// Enqueue queues one wire-format event for delivery over the stream.
func (s *sseSession) Enqueue(event string) error {
	select {
	case <-s.done:
		return errors.New("session closed")
	default:
	}

	select {
	case s.eventQueue <- event:
		return nil
	case <-s.done:
		return errors.New("session closed")
	default:
		return errors.New("event queue full")
	}
}
