// Package realtime tracks which users are online and routes chat and
// notification events between their connections.
package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Registry maps user identities to their live connection. It survives only
// for the process lifetime; clients re-announce on reconnect.
type Registry struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID]*Client
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[uuid.UUID]*Client)}
}

// Register tracks c as the connection for userID. The newest connection wins:
// if another connection was registered for the same user it is displaced and
// returned so the caller can close it. Re-registering the same connection is
// a no-op.
func (r *Registry) Register(userID uuid.UUID, c *Client) (displaced *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.byUser[userID]
	if prev == c {
		return nil
	}
	r.byUser[userID] = c
	return prev
}

// Unregister removes the entry whose connection matches c, if any. Reports
// whether an entry was removed. A displaced connection no longer matches its
// old entry, so its disconnect is a no-op here.
func (r *Registry) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, cur := range r.byUser {
		if cur == c {
			delete(r.byUser, userID)
			return true
		}
	}
	return false
}

// Lookup returns the connection registered for userID.
func (r *Registry) Lookup(userID uuid.UUID) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byUser[userID]
	return c, ok
}

// UserIDs returns the identities of every registered user. The order is not
// specified.
func (r *Registry) UserIDs() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(r.byUser))
	for userID := range r.byUser {
		ids = append(ids, userID)
	}
	return ids
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
