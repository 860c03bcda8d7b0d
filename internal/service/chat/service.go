// Package chat stores the per-room conversation history replayed to the chat provider.
package chat

import (
	"context"
	"sync"
	"time"

	"github.com/learnhub/backend/internal/model/chat"
)

// Store keeps ordered turns per room.
type Store interface {
	// Get returns a copy of the room's turns, empty when the room is unknown.
	Get(ctx context.Context, room string) ([]chat.Turn, error)
	Append(ctx context.Context, room string, turns ...chat.Turn) error
	Clear(ctx context.Context, room string) error
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]chat.Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]chat.Turn)}
}

func (s *MemoryStore) Get(_ context.Context, room string) ([]chat.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.turns[room]
	copied := make([]chat.Turn, len(turns))
	copy(copied, turns)
	return copied, nil
}

func (s *MemoryStore) Append(_ context.Context, room string, turns ...chat.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.turns[room]; !ok {
		s.turns[room] = make([]chat.Turn, 0, 16)
	}
	for _, turn := range turns {
		if turn.Timestamp.IsZero() {
			turn.Timestamp = time.Now().UTC()
		}
		s.turns[room] = append(s.turns[room], turn)
	}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, room string) error {
	s.mu.Lock()
	delete(s.turns, room)
	s.mu.Unlock()
	return nil
}
