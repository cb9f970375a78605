package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// ActiveChats maps each user to the chat currently open in their UI. The
// value only suppresses redundant notifications; it is not correctness
// critical, so Set is last-write-wins with no ordering protection against
// out-of-order client events.
type ActiveChats struct {
	mu   sync.Mutex
	open map[uuid.UUID]uuid.UUID
}

func NewActiveChats() *ActiveChats {
	return &ActiveChats{open: make(map[uuid.UUID]uuid.UUID)}
}

// Set records chatID as the chat userID has open, replacing any prior value.
func (a *ActiveChats) Set(userID, chatID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.open[userID] = chatID
}

// Get returns the chat userID currently has open.
func (a *ActiveChats) Get(userID uuid.UUID) (uuid.UUID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	chatID, ok := a.open[userID]
	return chatID, ok
}

// Clear drops userID's marker. Called when the pane closes and on disconnect,
// so a stale "chat is open" entry cannot suppress notifications after the
// user reconnects.
func (a *ActiveChats) Clear(userID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.open, userID)
}
