package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/layer-3/simorgh/core"
	"github.com/layer-3/simorgh/ports"
)

// MemoryStore is an in-process identity store for tests and local
// development. A phone resolves to the same ID on every call.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]core.UserID
}

// NewMemoryStore creates an in-memory identity store.
func NewMemoryStore() ports.IdentityStore {
	return &MemoryStore{users: make(map[string]core.UserID)}
}

func (s *MemoryStore) ResolveOrCreate(ctx context.Context, phone string) (core.UserID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.users[phone]; ok {
		return id, nil
	}
	id := core.UserID(uuid.New().String())
	s.users[phone] = id
	return id, nil
}
