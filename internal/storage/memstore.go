package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemStore is a map-backed Store used in tests. Collections round-trip
// through JSON so it keeps the same marshalling behavior as FileStore.
type MemStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	updateMu map[string]*sync.Mutex
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		data:     make(map[string][]byte),
		updateMu: make(map[string]*sync.Mutex),
	}
}

func (s *MemStore) Load(ctx context.Context, collection string, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	raw, ok := s.data[collection]
	s.mu.Unlock()
	if !ok {
		resetSlice(dest)
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("storage: decode %s: %w", collection, err)
	}
	return nil
}

func (s *MemStore) Save(ctx context.Context, collection string, records any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", collection, err)
	}
	s.mu.Lock()
	s.data[collection] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemStore) Update(ctx context.Context, fn func(ctx context.Context) error, collections ...string) error {
	names := append([]string(nil), collections...)
	sort.Strings(names)
	names = dedupe(names)

	locks := make([]*sync.Mutex, 0, len(names))
	for _, name := range names {
		s.mu.Lock()
		mu, ok := s.updateMu[name]
		if !ok {
			mu = &sync.Mutex{}
			s.updateMu[name] = mu
		}
		s.mu.Unlock()
		mu.Lock()
		locks = append(locks, mu)
	}
	defer func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}()

	return fn(ctx)
}
