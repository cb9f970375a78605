package model

import (
	"time"

	"github.com/google/uuid"
)

// Message is a single chat message. Immutable once created; ordering is by
// CreatedAt.
type Message struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"chatId"`
	UserID    uuid.UUID `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Chat is a two-party conversation record. SeenBy holds the participants who
// have viewed the chat up to its latest state and is always a subset of
// UserIDs for a well-formed chat.
type Chat struct {
	ID          uuid.UUID   `json:"id"`
	UserIDs     []uuid.UUID `json:"userIDs"`
	SeenBy      []uuid.UUID `json:"seenBy"`
	LastMessage string      `json:"lastMessage"`
	Messages    []Message   `json:"messages,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// ChatSummary is the chat-list entry a client holds: the chat plus the other
// participant's profile.
type ChatSummary struct {
	ID          uuid.UUID   `json:"id"`
	Receiver    PublicUser  `json:"receiver"`
	LastMessage string      `json:"lastMessage"`
	SeenBy      []uuid.UUID `json:"seenBy"`
}

// SeenByContains reports whether userID is in the summary's seen set.
func (s ChatSummary) SeenByContains(userID uuid.UUID) bool {
	for _, id := range s.SeenBy {
		if id == userID {
			return true
		}
	}
	return false
}
