package client

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlemere/estately/internal/model"
)

func newTestList(t *testing.T) (*ChatList, *Counter, uuid.UUID, model.ChatSummary) {
	t.Helper()
	self := uuid.New()
	other := uuid.New()
	counter := NewCounter()
	list := NewChatList(self, counter)

	summary := model.ChatSummary{
		ID:          uuid.New(),
		Receiver:    model.PublicUser{ID: other, Username: "landlord"},
		LastMessage: "is it still available?",
		SeenBy:      []uuid.UUID{self, other},
	}
	list.SetChats([]model.ChatSummary{summary})
	return list, counter, self, summary
}

func TestApplyMessageIgnoresSelfEcho(t *testing.T) {
	list, counter, self, summary := newTestList(t)
	counter.Set(3)

	list.ApplyMessage(model.Message{
		ID:     uuid.New(),
		ChatID: summary.ID,
		UserID: self,
		Text:   "echo of my own send",
	})

	got := list.Chats()[0]
	assert.Equal(t, summary.LastMessage, got.LastMessage, "self echo must not touch the preview")
	assert.True(t, got.SeenByContains(self))
	assert.Equal(t, 3, counter.Value())
}

func TestApplyMessageForOpenChatKeepsSeenBy(t *testing.T) {
	list, _, self, summary := newTestList(t)

	_, err := list.Open(context.Background(), summary.ID, func(ctx context.Context, chatID uuid.UUID) (model.Chat, error) {
		return model.Chat{ID: chatID, SeenBy: []uuid.UUID{self}}, nil
	})
	require.NoError(t, err)

	list.ApplyMessage(model.Message{
		ID:     uuid.New(),
		ChatID: summary.ID,
		UserID: summary.Receiver.ID,
		Text:   "sure, come by tomorrow",
	})

	got := list.Chats()[0]
	assert.True(t, got.SeenByContains(self), "open chat stays read")
	assert.Equal(t, summary.LastMessage, got.LastMessage, "open chat only extends the transcript")
	assert.Len(t, list.Transcript(), 1)
	assert.False(t, list.Unread(summary.ID))
}

func TestChatsSnapshotIsDetachedFromLiveState(t *testing.T) {
	list, _, self, summary := newTestList(t)

	snap := list.Chats()

	// Mutate the live entry both ways after the snapshot was taken.
	list.ApplyMessage(model.Message{
		ID:     uuid.New(),
		ChatID: summary.ID,
		UserID: summary.Receiver.ID,
		Text:   "fresh offer",
	})
	list.ApplyMarkRead(summary.ID, uuid.New())

	assert.True(t, snap[0].SeenByContains(self), "snapshot keeps its seen set")
	assert.ElementsMatch(t, []uuid.UUID{self, summary.Receiver.ID}, snap[0].SeenBy)
	assert.Equal(t, summary.LastMessage, snap[0].LastMessage)

	// The live list did move on.
	got := list.Chats()[0]
	assert.False(t, got.SeenByContains(self))
	assert.Equal(t, "fresh offer", got.LastMessage)
}

func TestApplyMessageMarksClosedChatUnread(t *testing.T) {
	list, _, self, summary := newTestList(t)

	list.ApplyMessage(model.Message{
		ID:     uuid.New(),
		ChatID: summary.ID,
		UserID: summary.Receiver.ID,
		Text:   "price dropped",
	})

	got := list.Chats()[0]
	assert.False(t, got.SeenByContains(self))
	assert.True(t, got.SeenByContains(summary.Receiver.ID), "only the local user is removed")
	assert.Equal(t, "price dropped", got.LastMessage)
	assert.True(t, list.Unread(summary.ID))
}

func TestApplyMarkReadIsIdempotentUnion(t *testing.T) {
	list, _, self, summary := newTestList(t)
	reader := uuid.New()

	list.ApplyMarkRead(summary.ID, reader)
	first := list.Chats()[0].SeenBy

	list.ApplyMarkRead(summary.ID, reader)
	second := list.Chats()[0].SeenBy

	assert.Equal(t, first, second, "applying the same receipt twice yields the same set")
	assert.ElementsMatch(t, []uuid.UUID{self, summary.Receiver.ID, reader}, second)
}

func TestOpenIsOptimisticBeforeFetchReturns(t *testing.T) {
	list, _, self, summary := newTestList(t)

	// Start unread.
	list.ApplyMessage(model.Message{
		ID:     uuid.New(),
		ChatID: summary.ID,
		UserID: summary.Receiver.ID,
		Text:   "new message",
	})
	require.True(t, list.Unread(summary.ID))

	fetched := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := list.Open(context.Background(), summary.ID, func(ctx context.Context, chatID uuid.UUID) (model.Chat, error) {
			close(fetched)
			<-release
			return model.Chat{ID: chatID, SeenBy: []uuid.UUID{self}}, nil
		})
		done <- err
	}()

	<-fetched
	// The fetch has not resolved, yet the chat already reads as seen.
	assert.False(t, list.Unread(summary.ID))
	close(release)
	require.NoError(t, <-done)
}

func TestOpenDecrementsCounterOnlyWhenServerHadUnseen(t *testing.T) {
	list, counter, self, summary := newTestList(t)
	counter.Set(2)

	// Server copy does not have self in seenBy yet: decrement.
	_, err := list.Open(context.Background(), summary.ID, func(ctx context.Context, chatID uuid.UUID) (model.Chat, error) {
		return model.Chat{ID: chatID, SeenBy: []uuid.UUID{summary.Receiver.ID}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, counter.Value())

	// Server copy already records self: no decrement.
	_, err = list.Open(context.Background(), summary.ID, func(ctx context.Context, chatID uuid.UUID) (model.Chat, error) {
		return model.Chat{ID: chatID, SeenBy: []uuid.UUID{self}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, counter.Value())
}

func TestOpenRevertsPaneOnFetchFailure(t *testing.T) {
	list, counter, _, summary := newTestList(t)
	counter.Set(1)

	_, err := list.Open(context.Background(), summary.ID, func(ctx context.Context, chatID uuid.UUID) (model.Chat, error) {
		return model.Chat{}, errors.New("store unavailable")
	})
	require.Error(t, err)

	_, open := list.OpenChatID()
	assert.False(t, open, "failed open leaves no pane")
	assert.Equal(t, 1, counter.Value(), "failed open never touches the counter")
}

func TestApplySendKeepsSenderSeen(t *testing.T) {
	list, _, self, summary := newTestList(t)

	// Start unread, then send: the sender's own view must flip to read.
	list.ApplyMessage(model.Message{
		ID:     uuid.New(),
		ChatID: summary.ID,
		UserID: summary.Receiver.ID,
		Text:   "hello?",
	})
	require.True(t, list.Unread(summary.ID))

	list.ApplySend(model.Message{
		ID:     uuid.New(),
		ChatID: summary.ID,
		UserID: self,
		Text:   "hi, yes it is",
	})

	got := list.Chats()[0]
	assert.Equal(t, "hi, yes it is", got.LastMessage)
	assert.True(t, got.SeenByContains(self))
	assert.False(t, list.Unread(summary.ID))
}

func TestOfflineReceiverScenario(t *testing.T) {
	// User A online, user B offline. A sends "hi" in chat X: no delivery
	// happens anywhere, and A's own list shows "hi" with A still seen.
	list, _, self, summary := newTestList(t)

	list.ApplySend(model.Message{
		ID:     uuid.New(),
		ChatID: summary.ID,
		UserID: self,
		Text:   "hi",
	})

	got := list.Chats()[0]
	assert.Equal(t, "hi", got.LastMessage)
	assert.True(t, got.SeenByContains(self))
}

func TestApplyMessageUnknownChatIsNoop(t *testing.T) {
	list, _, _, _ := newTestList(t)

	list.ApplyMessage(model.Message{
		ID:     uuid.New(),
		ChatID: uuid.New(),
		UserID: uuid.New(),
		Text:   "stray",
	})

	assert.Len(t, list.Chats(), 1)
}
