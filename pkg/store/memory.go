package store

import (
	"context"
	"sync"

	"github.com/Sternrassler/compile-bytecodes/pkg/batch"
	"github.com/Sternrassler/compile-bytecodes/pkg/compile"
)

// Memory is an in-process bytecode store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]Entry),
	}
}

// Load stores every input of req and returns their IDObjects in request order.
func (m *Memory) Load(ctx context.Context, req batch.Request[*compile.BytecodeInput]) ([]compile.IDObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := newEntries(req.Kind, req.Inputs)
	if err != nil {
		StoreErrors.WithLabelValues("memory", "load").Inc()
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		if _, exists := m.entries[e.ID]; exists {
			StoreWrites.WithLabelValues("memory", "deduplicated").Inc()
			continue
		}
		m.entries[e.ID] = e
		StoreWrites.WithLabelValues("memory", "stored").Inc()
	}

	return idObjects(entries), nil
}

// Get retrieves an entry by ID.
func (m *Memory) Get(_ context.Context, id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
