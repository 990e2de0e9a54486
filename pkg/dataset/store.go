package dataset

import (
	"sync"

	"github.com/google/uuid"
)

// Store is an additive-only registry mapping opaque identifiers to datasets.
// Entries are never mutated after Put; Release lets the host drop a dataset
// once its run's report has been archived.
type Store struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
}

// NewStore creates an empty registry.
func NewStore() *Store {
	return &Store{datasets: make(map[string]*Dataset)}
}

// Put registers a dataset and returns its identifier.
func (s *Store) Put(d *Dataset) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.datasets[id] = d
	s.mu.Unlock()
	return id
}

// Get returns the dataset for an identifier.
func (s *Store) Get(id string) (*Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.datasets[id]
	return d, ok
}

// Release removes a dataset from the registry.
func (s *Store) Release(id string) {
	s.mu.Lock()
	delete(s.datasets, id)
	s.mu.Unlock()
}

// Len returns the number of registered datasets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}
