package storage

import (
	"context"
	"sync"

	"zeus/internal/core"
)

// MemoryStore holds the encoded record in memory. It goes through the same
// codec as the durable stores so tests see the same round-trip behaviour.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
	err   error
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// NewMemoryStoreWith returns a store preloaded with st.
func NewMemoryStoreWith(st *core.State) (*MemoryStore, error) {
	data, err := encodeState(st)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{data: data}, nil
}

func (s *MemoryStore) Load(context.Context) (*core.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.data == nil {
		return nil, ErrNotFound
	}
	return decodeState(s.data)
}

func (s *MemoryStore) Save(_ context.Context, st *core.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	data, err := encodeState(st)
	if err != nil {
		return err
	}
	s.data = data
	s.saves++
	return nil
}

// FailWith makes every later Load and Save return err. Pass nil to recover.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Saves reports how many successful saves happened.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Bytes returns a copy of the last saved record.
func (s *MemoryStore) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}
