package session

import (
	"context"
	"sync"

	"github.com/lumabot/wabridge/internal/agent"
)

// MemoryStore keeps session transcripts in process memory. Transcripts do
// not survive a restart; use the Redis-backed store for durability.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]agent.Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]agent.Turn)}
}

func (s *MemoryStore) Save(ctx context.Context, sessionKey string, turns []agent.Turn) error {
	copied := make([]agent.Turn, len(turns))
	copy(copied, turns)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[sessionKey] = copied
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, sessionKey string) ([]agent.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.turns[sessionKey]
	if !ok {
		return nil, nil
	}
	copied := make([]agent.Turn, len(stored))
	copy(copied, stored)
	return copied, nil
}
