package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/castlemere/estately/internal/model"
)

// Handlers receives decoded server pushes. Nil fields are skipped.
type Handlers struct {
	OnRoster         func(userIDs []uuid.UUID)
	OnMessage        func(msg model.Message)
	OnNotification   func(n model.NotificationPayload)
	OnChatMarkedRead func(chatID, userID uuid.UUID)
}

// Socket is a client connection to the realtime layer. Methods are safe to
// call while Listen runs; the underlying transport serializes writes.
type Socket struct {
	conn *websocket.Conn
	self uuid.UUID
}

// Dial connects to the realtime endpoint. HTTPClient carries the caller's
// auth cookies when the endpoint sits behind the session middleware.
func Dial(ctx context.Context, url string, self uuid.UUID, httpClient *http.Client) (*Socket, error) {
	opts := &websocket.DialOptions{}
	if httpClient != nil {
		opts.HTTPClient = httpClient
	}
	conn, _, err := websocket.Dial(ctx, url, opts)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", url, err)
	}
	return &Socket{conn: conn, self: self}, nil
}

// Announce identifies this connection to the router. Called once after dial
// and again after every reconnect; the server rebuilds presence from it.
func (s *Socket) Announce(ctx context.Context) error {
	return s.emit(ctx, model.EventNewUser, model.AnnouncePayload{UserID: s.self})
}

// SendMessage forwards an already-persisted message for delivery to
// receiverID. Fire and forget: an offline receiver drops it silently.
func (s *Socket) SendMessage(ctx context.Context, receiverID uuid.UUID, msg model.Message) error {
	return s.emit(ctx, model.EventSendMessage, model.SendMessagePayload{
		ReceiverID: receiverID,
		Data:       msg,
	})
}

// MarkChatRead announces that the local user has read chatID.
func (s *Socket) MarkChatRead(ctx context.Context, chatID uuid.UUID) error {
	return s.emit(ctx, model.EventMarkChatRead, model.MarkReadPayload{
		ChatID: chatID,
		UserID: s.self,
	})
}

// SetActiveChat tells the router which chat pane is open. Pass nil when the
// pane closes.
func (s *Socket) SetActiveChat(ctx context.Context, chatID *uuid.UUID) error {
	return s.emit(ctx, model.EventSetActiveChat, model.ActiveChatPayload{
		UserID: s.self,
		ChatID: chatID,
	})
}

func (s *Socket) emit(ctx context.Context, eventType string, payload any) error {
	ev, err := model.NewEnvelope(eventType, payload)
	if err != nil {
		return err
	}
	if err := wsjson.Write(ctx, s.conn, ev); err != nil {
		return fmt.Errorf("client: emit %s: %w", eventType, err)
	}
	return nil
}

// Listen reads server pushes and dispatches them until the connection closes
// or ctx is cancelled. Notifications echoing the local user's own sends are
// filtered here, before any counter is touched.
func (s *Socket) Listen(ctx context.Context, h Handlers) error {
	for {
		msgType, p, err := s.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			return fmt.Errorf("client: listen: %w", err)
		}
		if msgType != websocket.MessageText {
			continue
		}

		var ev model.Envelope
		if err := json.Unmarshal(p, &ev); err != nil {
			log.Printf("failed to process server event: %v", err)
			continue
		}
		s.dispatch(ev, h)
	}
}

func (s *Socket) dispatch(ev model.Envelope, h Handlers) {
	switch ev.Type {
	case model.EventOnlineUsers:
		var roster []uuid.UUID
		if err := ev.Decode(&roster); err != nil {
			log.Printf("%v", err)
			return
		}
		if h.OnRoster != nil {
			h.OnRoster(roster)
		}

	case model.EventGetMessage:
		var msg model.Message
		if err := ev.Decode(&msg); err != nil {
			log.Printf("%v", err)
			return
		}
		if h.OnMessage != nil {
			h.OnMessage(msg)
		}

	case model.EventNotification:
		var n model.NotificationPayload
		if err := ev.Decode(&n); err != nil {
			log.Printf("%v", err)
			return
		}
		if n.SenderID == s.self {
			return
		}
		if h.OnNotification != nil {
			h.OnNotification(n)
		}

	case model.EventChatMarkedRead:
		var p model.MarkReadPayload
		if err := ev.Decode(&p); err != nil {
			log.Printf("%v", err)
			return
		}
		if h.OnChatMarkedRead != nil {
			h.OnChatMarkedRead(p.ChatID, p.UserID)
		}

	default:
		log.Printf("dropping unknown server event %q", ev.Type)
	}
}

// Close closes the connection cleanly.
func (s *Socket) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "bye")
}
