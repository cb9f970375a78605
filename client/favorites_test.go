package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleOptimisticAndPersisted(t *testing.T) {
	favs := NewFavorites()
	post := uuid.New()

	saved, err := favs.Toggle(context.Background(), post, func(ctx context.Context, postID uuid.UUID) error {
		return nil
	})
	require.NoError(t, err)
	assert.True(t, saved)
	assert.True(t, favs.IsFavorited(post))

	saved, err = favs.Toggle(context.Background(), post, func(ctx context.Context, postID uuid.UUID) error {
		return nil
	})
	require.NoError(t, err)
	assert.False(t, saved)
	assert.False(t, favs.IsFavorited(post))
}

func TestToggleRollsBackOnPersistFailure(t *testing.T) {
	favs := NewFavorites()
	post := uuid.New()

	saved, err := favs.Toggle(context.Background(), post, func(ctx context.Context, postID uuid.UUID) error {
		return errors.New("save endpoint down")
	})
	require.Error(t, err)
	assert.False(t, saved, "failed toggle reports the pre-toggle state")
	assert.False(t, favs.IsFavorited(post))

	// A later toggle works again; the pending marker was released.
	saved, err = favs.Toggle(context.Background(), post, func(ctx context.Context, postID uuid.UUID) error {
		return nil
	})
	require.NoError(t, err)
	assert.True(t, saved)
}

func TestSecondToggleWhileFirstInFlight(t *testing.T) {
	favs := NewFavorites()
	post := uuid.New()

	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := favs.Toggle(context.Background(), post, func(ctx context.Context, postID uuid.UUID) error {
			close(started)
			<-release
			return nil
		})
		assert.NoError(t, err)
	}()

	<-started
	// Second toggle on the same post while the first is unresolved.
	saved, err := favs.Toggle(context.Background(), post, func(ctx context.Context, postID uuid.UUID) error {
		t.Error("second toggle must not reach persistence")
		return nil
	})
	assert.ErrorIs(t, err, ErrToggleInFlight)
	assert.True(t, saved, "rejected toggle reports the in-flight optimistic state")

	close(release)
	wg.Wait()

	// Final state matches the outcome of the first call only.
	assert.True(t, favs.IsFavorited(post))
}

func TestTogglesOnDistinctPostsDoNotBlockEachOther(t *testing.T) {
	favs := NewFavorites()
	postA, postB := uuid.New(), uuid.New()

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := favs.Toggle(context.Background(), postA, func(ctx context.Context, postID uuid.UUID) error {
			<-release
			return nil
		})
		assert.NoError(t, err)
	}()

	saved, err := favs.Toggle(context.Background(), postB, func(ctx context.Context, postID uuid.UUID) error {
		return nil
	})
	require.NoError(t, err)
	assert.True(t, saved)

	close(release)
	wg.Wait()
}

func TestSetFromServerAndClear(t *testing.T) {
	favs := NewFavorites()
	a, b := uuid.New(), uuid.New()

	favs.SetFromServer([]uuid.UUID{a, b})
	assert.ElementsMatch(t, []uuid.UUID{a, b}, favs.FavoriteIDs())
	assert.True(t, favs.IsFavorited(a))

	favs.Clear()
	assert.Empty(t, favs.FavoriteIDs())
}
