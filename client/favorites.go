package client

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrToggleInFlight means a toggle for the same post has not resolved yet.
var ErrToggleInFlight = errors.New("client: favorite toggle already in flight")

// PersistFunc performs the backing save/unsave call for a post.
type PersistFunc func(ctx context.Context, postID uuid.UUID) error

// Favorites is the optimistic saved-posts cache. Each post allows one toggle
// in flight at a time; the pending set is the advisory lock. A failed
// persistence call rolls the optimistic flip back to its pre-toggle value.
type Favorites struct {
	mu      sync.Mutex
	saved   map[uuid.UUID]struct{}
	pending map[uuid.UUID]struct{}
}

func NewFavorites() *Favorites {
	return &Favorites{
		saved:   make(map[uuid.UUID]struct{}),
		pending: make(map[uuid.UUID]struct{}),
	}
}

// SetFromServer replaces the cache with the authoritative saved-post ids.
func (f *Favorites) SetFromServer(postIDs []uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saved = make(map[uuid.UUID]struct{}, len(postIDs))
	for _, id := range postIDs {
		f.saved[id] = struct{}{}
	}
}

// IsFavorited reports whether postID is currently saved.
func (f *Favorites) IsFavorited(postID uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.saved[postID]
	return ok
}

// Toggle flips the saved state of postID optimistically, then persists. While
// a toggle is in flight a second Toggle on the same post is rejected with
// ErrToggleInFlight and the current state is returned unchanged. On
// persistence failure the flip is reverted and the error returned. The
// returned bool is the saved state after the call.
func (f *Favorites) Toggle(ctx context.Context, postID uuid.UUID, persist PersistFunc) (bool, error) {
	f.mu.Lock()
	if _, inFlight := f.pending[postID]; inFlight {
		_, saved := f.saved[postID]
		f.mu.Unlock()
		return saved, ErrToggleInFlight
	}
	f.pending[postID] = struct{}{}

	_, wasSaved := f.saved[postID]
	if wasSaved {
		delete(f.saved, postID)
	} else {
		f.saved[postID] = struct{}{}
	}
	f.mu.Unlock()

	err := persist(ctx, postID)

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, postID)

	if err != nil {
		// Compensating action: restore the pre-toggle value.
		if wasSaved {
			f.saved[postID] = struct{}{}
		} else {
			delete(f.saved, postID)
		}
		return wasSaved, err
	}
	return !wasSaved, nil
}

// Clear empties the cache, e.g. on logout.
func (f *Favorites) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = make(map[uuid.UUID]struct{})
	f.pending = make(map[uuid.UUID]struct{})
}

// FavoriteIDs returns the saved post ids in unspecified order.
func (f *Favorites) FavoriteIDs() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(f.saved))
	for id := range f.saved {
		ids = append(ids, id)
	}
	return ids
}
