package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Socket event names, shared between the realtime server and the client SDK.
const (
	EventNewUser        = "newUser"
	EventOnlineUsers    = "getOnlineUsers"
	EventSendMessage    = "sendMessage"
	EventGetMessage     = "getMessage"
	EventNotification   = "getNotification"
	EventMarkChatRead   = "markChatAsRead"
	EventChatMarkedRead = "chatMarkedAsRead"
	EventSetActiveChat  = "setActiveChat"
)

// Envelope is the wire frame for every socket event. The payload shape is
// keyed by Type.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals v into an Envelope of the given type.
func NewEnvelope(eventType string, v any) (Envelope, error) {
	p, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, fmt.Errorf("model: encode %s payload: %w", eventType, err)
	}
	return Envelope{Type: eventType, Payload: p}, nil
}

// Decode unmarshals the envelope payload into v.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("model: decode %s payload: %w", e.Type, err)
	}
	return nil
}

// AnnouncePayload identifies the connection's user (newUser).
type AnnouncePayload struct {
	UserID uuid.UUID `json:"userId"`
}

// SendMessagePayload asks the router to deliver Data to ReceiverID.
type SendMessagePayload struct {
	ReceiverID uuid.UUID `json:"receiverId"`
	Data       Message   `json:"data"`
}

// NotificationPayload tells a client it has an unread message
// (getNotification).
type NotificationPayload struct {
	SenderID uuid.UUID `json:"senderId"`
	IsRead   bool      `json:"isRead"`
	Date     time.Time `json:"date"`
}

// MarkReadPayload carries a read receipt (markChatAsRead/chatMarkedAsRead).
type MarkReadPayload struct {
	ChatID uuid.UUID `json:"chatId"`
	UserID uuid.UUID `json:"userId"`
}

// ActiveChatPayload updates the active-chat tracker. A nil ChatID means the
// user closed their chat pane.
type ActiveChatPayload struct {
	UserID uuid.UUID  `json:"userId"`
	ChatID *uuid.UUID `json:"chatId"`
}
