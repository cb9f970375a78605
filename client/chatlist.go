package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/castlemere/estately/internal/model"
)

// FetchChatFunc loads the authoritative chat record, transcript included.
// The server side effect of this fetch is marking the caller as having seen
// the chat.
type FetchChatFunc func(ctx context.Context, chatID uuid.UUID) (model.Chat, error)

// ChatList holds the client's chat summaries, the open chat's transcript and
// the unread counter, and keeps them consistent while socket pushes and local
// user actions interleave. There are no ordering guarantees on inbound
// events; consistency comes from the rules in ApplyMessage/Open, not from
// the transport.
type ChatList struct {
	mu         sync.Mutex
	self       uuid.UUID
	order      []uuid.UUID
	chats      map[uuid.UUID]*model.ChatSummary
	open       uuid.UUID // zero when no pane is open
	transcript []model.Message
	counter    *Counter
}

func NewChatList(self uuid.UUID, counter *Counter) *ChatList {
	return &ChatList{
		self:    self,
		chats:   make(map[uuid.UUID]*model.ChatSummary),
		counter: counter,
	}
}

// SetChats replaces the list with an authoritative server snapshot.
func (l *ChatList) SetChats(chats []model.ChatSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.order = l.order[:0]
	l.chats = make(map[uuid.UUID]*model.ChatSummary, len(chats))
	for i := range chats {
		c := chats[i]
		c.SeenBy = append([]uuid.UUID(nil), c.SeenBy...)
		l.order = append(l.order, c.ID)
		l.chats[c.ID] = &c
	}
}

// Chats returns a copy of the summaries in list order. The seen sets are
// detached from the live entries, so a snapshot never changes under a later
// mutation.
func (l *ChatList) Chats() []model.ChatSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.ChatSummary, 0, len(l.order))
	for _, id := range l.order {
		c, ok := l.chats[id]
		if !ok {
			continue
		}
		cp := *c
		cp.SeenBy = append([]uuid.UUID(nil), c.SeenBy...)
		out = append(out, cp)
	}
	return out
}

// ApplyMessage reconciles an inbound getMessage push. Rules, in priority
// order:
//  1. a self-originated echo is ignored entirely, the optimistic send
//     already reflected it;
//  2. a message for the open chat only extends the transcript, the chat is
//     already considered read locally;
//  3. otherwise the chat goes unread for the local user and its preview
//     updates.
func (l *ChatList) ApplyMessage(msg model.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if msg.UserID == l.self {
		return
	}

	if l.open != uuid.Nil && l.open == msg.ChatID {
		l.transcript = append(l.transcript, msg)
		return
	}

	c, ok := l.chats[msg.ChatID]
	if !ok {
		return
	}
	c.SeenBy = removeID(c.SeenBy, l.self)
	c.LastMessage = msg.Text
}

// ApplyMarkRead reconciles a chatMarkedAsRead broadcast: an idempotent union,
// never a replace, so applying the same receipt twice yields the same set.
func (l *ChatList) ApplyMarkRead(chatID, userID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.chats[chatID]
	if !ok {
		return
	}
	c.SeenBy = unionID(c.SeenBy, userID)
}

// Open opens a chat pane. The local seen-state flips optimistically before
// the authoritative fetch, so the entry can never flash back to unread while
// its own pane is open. The counter is decremented only when the server copy
// had not yet recorded the local user as having seen the chat.
func (l *ChatList) Open(ctx context.Context, chatID uuid.UUID, fetch FetchChatFunc) (model.Chat, error) {
	l.mu.Lock()
	prevOpen := l.open
	if c, ok := l.chats[chatID]; ok {
		c.SeenBy = unionID(c.SeenBy, l.self)
	}
	l.open = chatID
	l.mu.Unlock()

	chat, err := fetch(ctx, chatID)
	if err != nil {
		// Compensate: the pane never opened. The optimistic seen mark stays;
		// a later push will flip it back if the chat is genuinely unread.
		l.mu.Lock()
		l.open = prevOpen
		l.mu.Unlock()
		return model.Chat{}, fmt.Errorf("client: open chat %s: %w", chatID, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.transcript = append([]model.Message(nil), chat.Messages...)
	if !containsID(chat.SeenBy, l.self) {
		l.counter.Decrease()
	}
	return chat, nil
}

// Close closes the open pane, if any.
func (l *ChatList) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open = uuid.Nil
	l.transcript = nil
}

// OpenChatID returns the chat the local user currently has on screen.
func (l *ChatList) OpenChatID() (uuid.UUID, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open, l.open != uuid.Nil
}

// Transcript returns a copy of the open chat's messages.
func (l *ChatList) Transcript() []model.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Message(nil), l.transcript...)
}

// ApplySend records a locally sent message: transcript append, preview
// update, and the sender stays in the seen set so their own chat never shows
// unread. No delivery acknowledgement is awaited.
func (l *ChatList) ApplySend(msg model.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.open != uuid.Nil && l.open == msg.ChatID {
		l.transcript = append(l.transcript, msg)
	}
	c, ok := l.chats[msg.ChatID]
	if !ok {
		return
	}
	c.LastMessage = msg.Text
	c.SeenBy = unionID(c.SeenBy, l.self)
}

// Unread reports whether the local user has not seen the chat's latest state.
func (l *ChatList) Unread(chatID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.chats[chatID]
	if !ok {
		return false
	}
	return !containsID(c.SeenBy, l.self)
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func unionID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	if containsID(ids, id) {
		return ids
	}
	return append(ids, id)
}

// removeID never compacts in place; handed-out snapshots keep their backing.
func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
