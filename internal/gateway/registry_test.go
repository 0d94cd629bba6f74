package gateway

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRegistryLastConnectWins(t *testing.T) {
	r := NewMemoryRegistry()
	userID := uuid.New()

	r.Register(userID, "conn-1")
	r.Register(userID, "conn-2")

	connID, ok := r.Lookup(userID)
	assert.True(t, ok)
	assert.Equal(t, "conn-2", connID)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryStaleUnregisterDoesNotEvict(t *testing.T) {
	r := NewMemoryRegistry()
	userID := uuid.New()

	r.Register(userID, "conn-1")
	r.Register(userID, "conn-2")

	// The old connection's teardown arrives after the reconnect already
	// overwrote the entry. It must not remove the live connection.
	r.Unregister(userID, "conn-1")

	connID, ok := r.Lookup(userID)
	assert.True(t, ok)
	assert.Equal(t, "conn-2", connID)

	r.Unregister(userID, "conn-2")
	_, ok = r.Lookup(userID)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryLookupUnknownUser(t *testing.T) {
	r := NewMemoryRegistry()

	_, ok := r.Lookup(uuid.New())
	assert.False(t, ok)
}
