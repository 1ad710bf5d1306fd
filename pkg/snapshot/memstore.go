package snapshot

import (
	"sort"
	"sync"
)

// MemStore is an in-memory Store, the shape of host tools that hand
// the pipeline a plain synchronous assets table. It is also the
// primary test double for the pipeline.
type MemStore struct {
	mu     sync.RWMutex
	assets map[string][]byte
}

// NewMemStore creates an empty in-memory snapshot.
func NewMemStore() *MemStore {
	return &MemStore{assets: make(map[string][]byte)}
}

// NewMemStoreFrom seeds a snapshot from a name→content map. Content
// slices are copied so the caller's map stays independent.
func NewMemStoreFrom(assets map[string][]byte) *MemStore {
	s := NewMemStore()
	for name, content := range assets {
		s.assets[name] = append([]byte(nil), content...)
	}
	return s
}

// Names returns all asset names, sorted for deterministic iteration.
func (s *MemStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.assets))
	for name := range s.assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Read returns a copy of the named asset's content.
func (s *MemStore) Read(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.assets[name]
	if !ok {
		return nil, notFound(name)
	}
	return append([]byte(nil), content...), nil
}

// Add inserts a new asset under an unused name.
func (s *MemStore) Add(name string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assets[name]; ok {
		return exists(name)
	}
	s.assets[name] = append([]byte(nil), content...)
	return nil
}

// Delete removes the named asset.
func (s *MemStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assets[name]; !ok {
		return notFound(name)
	}
	delete(s.assets, name)
	return nil
}

// Update replaces the content of an existing asset.
func (s *MemStore) Update(name string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assets[name]; !ok {
		return notFound(name)
	}
	s.assets[name] = append([]byte(nil), content...)
	return nil
}

// Len returns the number of assets in the snapshot.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}
