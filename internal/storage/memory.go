package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Kdotropez/facture-fournisseur/internal/common"
)

// MemoryKV is an in-memory KV used by tests and throwaway runs.
type MemoryKV struct {
	data   map[string]map[string][]byte
	mu     sync.RWMutex
	closed bool
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: map[string]map[string][]byte{}}
}

// Get returns the value stored under key, or common.ErrNotFound.
func (m *MemoryKV) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, common.ErrStoreClosed
	}
	data, ok := m.data[bucket][key]
	if !ok {
		return nil, fmt.Errorf("key %q: %w", key, common.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// Put stores value under key.
func (m *MemoryKV) Put(ctx context.Context, bucket, key string, value []byte) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return common.ErrStoreClosed
	}
	if m.data[bucket] == nil {
		m.data[bucket] = map[string][]byte{}
	}
	m.data[bucket][key] = append([]byte(nil), value...)
	return nil
}

// List returns all entries whose key starts with prefix.
func (m *MemoryKV) List(ctx context.Context, bucket, prefix string) (map[string][]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, common.ErrStoreClosed
	}
	out := make(map[string][]byte)
	for k, v := range m.data[bucket] {
		if strings.HasPrefix(k, prefix) {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

// Close marks the store closed; further calls fail.
func (m *MemoryKV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
