package gateway

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks which connection currently belongs to each user. One
// active connection per user: a reconnect overwrites the prior entry.
// Process-local by design; swap the implementation for a shared store if
// the gateway ever runs on more than one process.
type Registry interface {
	Register(userID uuid.UUID, connID string)
	// Unregister removes the entry only if it still points at connID, so a
	// stale disconnect cannot evict a newer connection.
	Unregister(userID uuid.UUID, connID string)
	Lookup(userID uuid.UUID) (string, bool)
	Len() int
}

type memoryRegistry struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]string
}

func NewMemoryRegistry() Registry {
	return &memoryRegistry{entries: make(map[uuid.UUID]string)}
}

func (r *memoryRegistry) Register(userID uuid.UUID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[userID] = connID
}

func (r *memoryRegistry) Unregister(userID uuid.UUID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.entries[userID]; ok && current == connID {
		delete(r.entries, userID)
	}
}

func (r *memoryRegistry) Lookup(userID uuid.UUID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.entries[userID]
	return connID, ok
}

func (r *memoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
