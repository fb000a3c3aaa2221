package chat

import (
	"context"
	"sync"
)

// SessionStore holds per-session history. Callers serialize access to a
// single session; implementations only need to be safe across sessions.
type SessionStore interface {
	// History returns the session's turns oldest first, or nil if unknown.
	History(ctx context.Context, sessionID string) ([]Turn, error)
	Append(ctx context.Context, sessionID string, turns ...Turn) error
	// Trim keeps only the newest max turns.
	Trim(ctx context.Context, sessionID string, max int) error
	// Clear forgets the session. Clearing an unknown session is not an error.
	Clear(ctx context.Context, sessionID string) error
}

// MemoryStore keeps history in a map. The mutex guards only the map
// itself and is never held across a remote call.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Turn)}
}

func (s *MemoryStore) History(_ context.Context, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	out := make([]Turn, len(h))
	copy(out, h)
	return out, nil
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, turns ...Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = append(s.sessions[sessionID], turns...)
	return nil
}

func (s *MemoryStore) Trim(_ context.Context, sessionID string, max int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.sessions[sessionID]
	if len(h) > max {
		trimmed := make([]Turn, max)
		copy(trimmed, h[len(h)-max:])
		s.sessions[sessionID] = trimmed
	}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}
