package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlemere/estately/internal/model"
	"github.com/castlemere/estately/internal/store"
	"github.com/castlemere/estately/internal/testutil"
)

func setupStore(t *testing.T) *store.Queries {
	t.Helper()

	testURL := testutil.RequireTestDB(t)
	pool, gooseDB, migDir := testutil.DbInit(testURL)
	testutil.DbGooseUp(gooseDB, migDir)

	t.Cleanup(func() {
		testutil.DbCleanup(pool, migDir)
		pool.Close()
	})

	return store.New(pool)
}

func createUser(t *testing.T, q *store.Queries, username string) model.User {
	t.Helper()

	user, err := q.CreateUser(context.Background(), store.CreateUserParams{
		UserID:   pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Username: username,
		Email:    username + "@example.com",
	})
	require.NoError(t, err)
	return user
}

func TestUserRoundTrip(t *testing.T) {
	q := setupStore(t)
	ctx := context.Background()

	created := createUser(t, q, "alice")

	got, err := q.GetUserByID(ctx, pgtype.UUID{Bytes: created.ID, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "alice", got.Username)

	_, err = q.GetUserByID(ctx, pgtype.UUID{Bytes: uuid.New(), Valid: true})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestChatPairIsReusable(t *testing.T) {
	q := setupStore(t)
	ctx := context.Background()

	alice := createUser(t, q, "alice")
	bob := createUser(t, q, "bob")

	chat, err := q.CreateChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, chat.SeenBy)

	// Lookup works regardless of participant order.
	found, err := q.GetChatForPair(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, found.ID)
}

func TestCreateMessageResetsSeenBy(t *testing.T) {
	q := setupStore(t)
	ctx := context.Background()

	alice := createUser(t, q, "alice")
	bob := createUser(t, q, "bob")

	chat, err := q.CreateChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, q.MarkChatSeen(ctx, chat.ID, bob.ID))

	msg, err := q.CreateMessage(ctx, store.CreateMessageParams{
		ChatID:    pgtype.UUID{Bytes: chat.ID, Valid: true},
		UserID:    pgtype.UUID{Bytes: alice.ID, Valid: true},
		Text:      "hello",
		CreatedAt: pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true},
	})
	require.NoError(t, err)
	assert.Equal(t, chat.ID, msg.ChatID)

	// A new message wipes the seen set down to just the sender.
	got, err := q.GetChat(ctx, chat.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice.ID}, got.SeenBy)
	assert.Equal(t, "hello", got.LastMessage)
	require.Len(t, got.Messages, 1)
}

func TestCreateMessageRejectsNonParticipant(t *testing.T) {
	q := setupStore(t)
	ctx := context.Background()

	alice := createUser(t, q, "alice")
	bob := createUser(t, q, "bob")
	mallory := createUser(t, q, "mallory")

	chat, err := q.CreateChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = q.CreateMessage(ctx, store.CreateMessageParams{
		ChatID:    pgtype.UUID{Bytes: chat.ID, Valid: true},
		UserID:    pgtype.UUID{Bytes: mallory.ID, Valid: true},
		Text:      "hi",
		CreatedAt: pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true},
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMarkChatSeenIsAdditiveAndIdempotent(t *testing.T) {
	q := setupStore(t)
	ctx := context.Background()

	alice := createUser(t, q, "alice")
	bob := createUser(t, q, "bob")

	chat, err := q.CreateChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, q.MarkChatSeen(ctx, chat.ID, alice.ID))
	require.NoError(t, q.MarkChatSeen(ctx, chat.ID, alice.ID))
	require.NoError(t, q.MarkChatSeen(ctx, chat.ID, bob.ID))

	got, err := q.GetChat(ctx, chat.ID, alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{alice.ID, bob.ID}, got.SeenBy)
}

func TestCountUnseenChats(t *testing.T) {
	q := setupStore(t)
	ctx := context.Background()

	alice := createUser(t, q, "alice")
	bob := createUser(t, q, "bob")
	carol := createUser(t, q, "carol")

	chatAB, err := q.CreateChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = q.CreateChat(ctx, alice.ID, carol.ID)
	require.NoError(t, err)

	n, err := q.CountUnseenChats(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, q.MarkChatSeen(ctx, chatAB.ID, alice.ID))

	n, err = q.CountUnseenChats(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestListChatSummariesFiltersMalformed(t *testing.T) {
	q := setupStore(t)
	ctx := context.Background()

	alice := createUser(t, q, "alice")
	bob := createUser(t, q, "bob")

	good, err := q.CreateChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	// A chat whose other participant no longer exists must be skipped, not
	// fail the listing.
	_, err = q.CreateChat(ctx, alice.ID, uuid.New())
	require.NoError(t, err)

	summaries, err := q.ListChatSummaries(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, good.ID, summaries[0].ID)
	assert.Equal(t, bob.ID, summaries[0].Receiver.ID)
}

func TestCleanupChatsRemovesMalformedWithMessages(t *testing.T) {
	q := setupStore(t)
	ctx := context.Background()

	alice := createUser(t, q, "alice")
	bob := createUser(t, q, "bob")

	good, err := q.CreateChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	bad, err := q.CreateChat(ctx, alice.ID, uuid.New())
	require.NoError(t, err)

	_, err = q.CreateMessage(ctx, store.CreateMessageParams{
		ChatID:    pgtype.UUID{Bytes: bad.ID, Valid: true},
		UserID:    pgtype.UUID{Bytes: alice.ID, Valid: true},
		Text:      "orphaned",
		CreatedAt: pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true},
	})
	require.NoError(t, err)

	deleted, err := q.CleanupChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bad.ID}, deleted)

	_, err = q.GetChat(ctx, bad.ID, alice.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = q.GetChat(ctx, good.ID, alice.ID)
	assert.NoError(t, err)

	// Nothing left to remove on a second pass.
	deleted, err = q.CleanupChats(ctx)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestToggleSavedPost(t *testing.T) {
	q := setupStore(t)
	ctx := context.Background()

	alice := createUser(t, q, "alice")
	bob := createUser(t, q, "bob")

	post, err := q.CreatePost(ctx, store.CreatePostParams{
		UserID: pgtype.UUID{Bytes: bob.ID, Valid: true},
		Title:  "2br flat",
		Price:  1200,
		City:   "Manchester",
	})
	require.NoError(t, err)

	saved, err := q.ToggleSavedPost(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	posts, err := q.ListSavedPosts(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, post.ID, posts[0].ID)

	saved, err = q.ToggleSavedPost(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, saved)

	posts, err = q.ListSavedPosts(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestListPostsFilters(t *testing.T) {
	q := setupStore(t)
	ctx := context.Background()

	bob := createUser(t, q, "bob")

	_, err := q.CreatePost(ctx, store.CreatePostParams{
		UserID: pgtype.UUID{Bytes: bob.ID, Valid: true},
		Title:  "cheap studio",
		Price:  500,
		City:   "Leeds",
		Type:   "rent",
	})
	require.NoError(t, err)
	_, err = q.CreatePost(ctx, store.CreatePostParams{
		UserID: pgtype.UUID{Bytes: bob.ID, Valid: true},
		Title:  "family house",
		Price:  250000,
		City:   "Leeds",
		Type:   "buy",
	})
	require.NoError(t, err)

	posts, err := q.ListPosts(ctx, store.ListPostsParams{City: "Leeds"})
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	posts, err = q.ListPosts(ctx, store.ListPostsParams{Type: "rent"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "cheap studio", posts[0].Title)

	posts, err = q.ListPosts(ctx, store.ListPostsParams{MinPrice: 1000})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "family house", posts[0].Title)
}
