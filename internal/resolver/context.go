package resolver

import (
	"sync"

	"handbook-rag/internal/models"
)

// DefaultSessionKey is the conversation slot shared by requests that
// carry no session identifier. It preserves the single-slot behavior
// the API always had for anonymous clients, while keyed clients get
// isolated slots.
const DefaultSessionKey = "default"

// ContextStore keeps the single most recent turn per session key.
type ContextStore struct {
	mu    sync.RWMutex
	turns map[string]models.Turn
}

func NewContextStore() *ContextStore {
	return &ContextStore{turns: make(map[string]models.Turn)}
}

func (s *ContextStore) Get(key string) (models.Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turn, ok := s.turns[key]
	return turn, ok
}

// Set overwrites the slot for key with the new turn. Turns are never
// merged; one slot holds exactly one prior exchange.
func (s *ContextStore) Set(key string, turn models.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[key] = turn
}

func (s *ContextStore) Clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, key)
}

func (s *ContextStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = make(map[string]models.Turn)
}
