package drafts

import (
	"context"
	"sync"

	"github.com/aashish4533/bloombook/internal/wizard"
)

// MemoryStore is a process-local Store for development and tests.
type MemoryStore struct {
	mu sync.Mutex
	m  map[string]wizard.State
}

func NewMemory() *MemoryStore {
	return &MemoryStore{m: make(map[string]wizard.State)}
}

func (s *MemoryStore) Load(_ context.Context, userID string, kind wizard.Kind) (wizard.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.m[Key(userID, kind)]
	if !ok {
		return wizard.State{}, ErrNotFound
	}
	return st, nil
}

func (s *MemoryStore) Save(_ context.Context, userID string, st wizard.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[Key(userID, st.Kind)] = st
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string, kind wizard.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, Key(userID, kind))
	return nil
}

func (s *MemoryStore) DeleteAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range kinds {
		delete(s.m, Key(userID, k))
	}
	return nil
}
