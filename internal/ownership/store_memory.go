package ownership

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"credmint/internal/sentinel"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	owned map[string]map[string]Credential
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{owned: make(map[string]map[string]Credential)}
}

func (s *InMemoryStore) Put(_ context.Context, c Credential) error {
	c.Address = strings.ToLower(c.Address)
	s.mu.Lock()
	defer s.mu.Unlock()
	byCollection, ok := s.owned[c.Address]
	if !ok {
		byCollection = make(map[string]Credential)
		s.owned[c.Address] = byCollection
	}
	byCollection[c.CollectionID] = c
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, address, collectionID string) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.owned[strings.ToLower(address)][collectionID]
	if !ok {
		return Credential{}, sentinel.ErrNotFound
	}
	return c, nil
}

func (s *InMemoryStore) List(_ context.Context, address string) ([]Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Collect(maps.Values(s.owned[strings.ToLower(address)]))
	slices.SortFunc(out, func(a, b Credential) int { return cmp.Compare(a.CollectionID, b.CollectionID) })
	return out, nil
}
