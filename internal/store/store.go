// Package store provides the durable key-value storage behind the ride
// mirror, the persisted session credential and the maps cache. Values are
// serialized as JSON. The Redis implementation is the durable one; the
// in-memory implementation backs tests and the degraded mode used when Redis
// is unreachable at startup.
package store

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("store: closed")

// Store is a synchronous JSON key-value store.
type Store interface {
	// Get unmarshals the value at key into out. The bool reports whether the
	// key was present.
	Get(ctx context.Context, key string, out interface{}) (bool, error)
	// Set overwrites any existing value at key.
	Set(ctx context.Context, key string, value interface{}) error
	// Delete removes the entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Memory is a non-durable Store. Values are kept as serialized JSON so that
// reads go through the same round-trip as the Redis store.
type Memory struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string, out interface{}) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, ErrClosed
	}
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, unmarshalValue(raw, out)
}

func (m *Memory) Set(_ context.Context, key string, value interface{}) error {
	raw, err := marshalValue(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data[key] = raw
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
