package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRegistryLookupFollowsMostRecentRegister(t *testing.T) {
	reg := NewRegistry()
	alice := uuid.New()
	bob := uuid.New()
	c1 := NewClient(nil)
	c2 := NewClient(nil)

	_, ok := reg.Lookup(alice)
	assert.False(t, ok, "empty registry should have no entry")

	reg.Register(alice, c1)
	got, ok := reg.Lookup(alice)
	assert.True(t, ok)
	assert.Same(t, c1, got)

	reg.Register(bob, c2)
	got, ok = reg.Lookup(bob)
	assert.True(t, ok)
	assert.Same(t, c2, got)
	assert.Equal(t, 2, reg.Len())

	assert.True(t, reg.Unregister(c1))
	_, ok = reg.Lookup(alice)
	assert.False(t, ok)

	// Unregistering a connection that is no longer tracked is a no-op.
	assert.False(t, reg.Unregister(c1))
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryNewestConnectionWins(t *testing.T) {
	reg := NewRegistry()
	alice := uuid.New()
	stale := NewClient(nil)
	fresh := NewClient(nil)

	assert.Nil(t, reg.Register(alice, stale))

	displaced := reg.Register(alice, fresh)
	assert.Same(t, stale, displaced, "older connection should be displaced")

	got, ok := reg.Lookup(alice)
	assert.True(t, ok)
	assert.Same(t, fresh, got)

	// The stale connection's eventual disconnect must not evict the fresh one.
	assert.False(t, reg.Unregister(stale))
	got, ok = reg.Lookup(alice)
	assert.True(t, ok)
	assert.Same(t, fresh, got)
}

func TestRegistryRegisterSameConnectionTwice(t *testing.T) {
	reg := NewRegistry()
	alice := uuid.New()
	c := NewClient(nil)

	assert.Nil(t, reg.Register(alice, c))
	assert.Nil(t, reg.Register(alice, c), "re-announce over the same connection displaces nothing")
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryUserIDs(t *testing.T) {
	reg := NewRegistry()
	alice := uuid.New()
	bob := uuid.New()

	reg.Register(alice, NewClient(nil))
	reg.Register(bob, NewClient(nil))

	ids := reg.UserIDs()
	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, ids)
}
