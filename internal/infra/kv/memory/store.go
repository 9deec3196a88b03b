// Package memory implements an in-memory kv Store for tests and ephemeral sessions.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"storefront/internal/kv/core"
)

// Store implements core.Store backed by process memory.
type Store struct {
	mu   sync.RWMutex
	objs map[string][]byte
}

// New returns an empty in-memory store.
func New() *Store { return &Store{objs: make(map[string][]byte)} }

// Driver returns the kv driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put stores a copy of value at key, replacing any previous value.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	if strings.TrimSpace(key) == "" {
		return core.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objs[key] = cloneBytes(value)
	return nil
}

// Get returns a copy of the value stored at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	v, ok := s.objs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("key %s: %w", key, core.ErrNotFound)
	}
	return cloneBytes(v), nil
}

// Delete removes the key returning true if it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objs[key]
	if ok {
		delete(s.objs, key)
	}
	return ok, nil
}

// List returns all keys matching prefix.
func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.objs))
	for k := range s.objs {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return []byte{}
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
