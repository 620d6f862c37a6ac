package terminal

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]StaffSession
}

// NewMemoryStore builds an in-process store, used in development and tests.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[string]StaffSession)}
}

func (s *memoryStore) Save(_ context.Context, session StaffSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.TerminalID] = session
	return nil
}

func (s *memoryStore) Current(_ context.Context, terminalID string) (StaffSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[terminalID]
	if !ok {
		return StaffSession{}, ErrNoSession
	}
	return session, nil
}

func (s *memoryStore) Clear(_ context.Context, terminalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, terminalID)
	return nil
}
