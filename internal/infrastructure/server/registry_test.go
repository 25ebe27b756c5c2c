package server

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *sseSession {
	t.Helper()
	session, err := newSSESession(httptest.NewRecorder(), "test-agent", 10)
	require.NoError(t, err)
	return session
}

func TestRegistryAddGetRemove(t *testing.T) {
	registry := NewSessionRegistry()
	session := newTestSession(t)

	registry.Add(session)
	assert.Equal(t, 1, registry.Len())

	got, ok := registry.Get(session.ID())
	require.True(t, ok)
	assert.Equal(t, session.ID(), got.ID())

	assert.True(t, registry.Remove(session.ID()))
	assert.Equal(t, 0, registry.Len())

	_, ok = registry.Get(session.ID())
	assert.False(t, ok)
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	registry := NewSessionRegistry()
	session := newTestSession(t)

	registry.Add(session)
	assert.True(t, registry.Remove(session.ID()))
	assert.False(t, registry.Remove(session.ID()))
	assert.False(t, registry.Remove("never-registered"))
}

func TestRegistryDistinctSessionIDs(t *testing.T) {
	registry := NewSessionRegistry()
	first := newTestSession(t)
	second := newTestSession(t)

	registry.Add(first)
	registry.Add(second)

	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, 2, registry.Len())

	registry.Remove(first.ID())
	assert.Equal(t, 1, registry.Len())

	_, ok := registry.Get(second.ID())
	assert.True(t, ok)
}

func TestRegistryCloseAll(t *testing.T) {
	registry := NewSessionRegistry()
	first := newTestSession(t)
	second := newTestSession(t)
	registry.Add(first)
	registry.Add(second)

	registry.CloseAll()

	assert.Equal(t, 0, registry.Len())
	select {
	case <-first.Closed():
	default:
		t.Fatal("first session not closed")
	}
	select {
	case <-second.Closed():
	default:
		t.Fatal("second session not closed")
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	session := newTestSession(t)
	session.Close()
	session.Close()

	require.Error(t, session.Enqueue("event: message\ndata: {}\n\n"))
}

func TestSessionEnqueueFullQueue(t *testing.T) {
	recorder := httptest.NewRecorder()
	session, err := newSSESession(recorder, "test-agent", 1)
	require.NoError(t, err)

	require.NoError(t, session.Enqueue("event: message\ndata: 1\n\n"))
	require.Error(t, session.Enqueue("event: message\ndata: 2\n\n"))
}
