package store

import (
	"bytes"
	"context"
	"sync"
)

// MemoryStore is an in-process KeyedStore for tests and single-node
// development. A single mutex serializes all mutations, which trivially
// satisfies the CAS contract.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) CompareAndSwap(_ context.Context, key string, expected, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.data[key]
	if expected == nil {
		if ok {
			return ErrSwapConflict
		}
		s.data[key] = append([]byte(nil), value...)
		return nil
	}
	if !ok || !bytes.Equal(current, expected) {
		return ErrSwapConflict
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}
