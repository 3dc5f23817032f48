package store

import (
	"context"
	"sync"

	"github.com/datapilot-ai/backend/internal/model/chat"
)

// MemoryStore keeps sessions and transcripts in process memory. This is the
// default backing for the registry; state lives exactly as long as the process.
type MemoryStore struct {
	mu       sync.RWMutex
	order    []string
	sessions map[string]chat.Session
	messages map[string][]chat.Message
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
	}
}

func (s *MemoryStore) CreateSession(_ context.Context, session chat.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; ok {
		return nil
	}
	s.sessions[session.ID] = session
	s.order = append(s.order, session.ID)
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, sessionID string) (chat.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	return session, ok, nil
}

func (s *MemoryStore) ListSessions(_ context.Context) ([]chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]chat.Session, 0, len(s.order))
	for _, id := range s.order {
		sessions = append(sessions, s.sessions[id])
	}
	return sessions, nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, sessionID string, message chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[sessionID] = append(s.messages[sessionID], message)
	return nil
}

func (s *MemoryStore) Messages(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.messages[sessionID]
	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

func (s *MemoryStore) LastMessage(_ context.Context, sessionID string) (chat.Message, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.messages[sessionID]
	if len(messages) == 0 {
		return chat.Message{}, false, nil
	}
	return messages[len(messages)-1], true, nil
}

func (s *MemoryStore) Close() error { return nil }
