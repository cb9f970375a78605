package realtime

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/castlemere/estately/internal/model"
)

type sanitizer interface {
	Sanitize(s string) string
	SanitizeBytes(p []byte) []byte
}

type Registration struct {
	Client *Client
	Done   chan struct{}
}

// Inbound is one socket event read off a connection, handed to the hub for
// routing.
type Inbound struct {
	Client *Client
	Event  model.Envelope
}

// Hub is the realtime router. All registry and tracker mutation happens on
// the Run goroutine, so inbound events are handled to completion one at a
// time.
type Hub struct {
	presence   *Registry
	active     *ActiveChats
	clients    map[*Client]struct{}
	Register   chan Registration
	Unregister chan *Client
	Inbound    chan Inbound
	sanitizer  sanitizer
	now        func() time.Time
}

// NewHub returns a new instance of Hub.
func NewHub() *Hub {
	return &Hub{
		presence:   NewRegistry(),
		active:     NewActiveChats(),
		clients:    make(map[*Client]struct{}),
		Register:   make(chan Registration),
		Unregister: make(chan *Client),
		Inbound:    make(chan Inbound, 1024),
		sanitizer:  bluemonday.StrictPolicy(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Presence exposes the registry for read-side callers (handlers, tests).
func (h *Hub) Presence() *Registry { return h.presence }

// ActiveChats exposes the tracker for read-side callers.
func (h *Hub) ActiveChats() *ActiveChats { return h.active }

// Run manages incoming and outgoing hub traffic until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case reg := <-h.Register:
			client := reg.Client
			h.clients[client] = struct{}{}
			client.Hub = h
			close(reg.Done)

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; !ok {
				continue
			}
			delete(h.clients, client)
			if h.presence.Unregister(client) {
				// Only an identified connection affects the roster and the
				// tracker.
				h.active.Clear(client.UserID)
				h.broadcastRoster()
			}
			close(client.send)

		case in := <-h.Inbound:
			h.handle(in)

		case <-ctx.Done():
			log.Printf("context cancelled: %v", ctx.Err())
			return
		}
	}
}

func (h *Hub) handle(in Inbound) {
	switch in.Event.Type {
	case model.EventNewUser:
		var p model.AnnouncePayload
		if err := in.Event.Decode(&p); err != nil {
			log.Printf("%v", err)
			return
		}
		h.announce(in.Client, p.UserID)

	case model.EventSendMessage:
		var p model.SendMessagePayload
		if err := in.Event.Decode(&p); err != nil {
			log.Printf("%v", err)
			return
		}
		h.routeMessage(p)

	case model.EventMarkChatRead:
		var p model.MarkReadPayload
		if err := in.Event.Decode(&p); err != nil {
			log.Printf("%v", err)
			return
		}
		h.broadcastMarkRead(in.Client, p)

	case model.EventSetActiveChat:
		var p model.ActiveChatPayload
		if err := in.Event.Decode(&p); err != nil {
			log.Printf("%v", err)
			return
		}
		if p.ChatID == nil {
			h.active.Clear(p.UserID)
		} else {
			h.active.Set(p.UserID, *p.ChatID)
		}

	default:
		log.Printf("dropping unknown event type %q", in.Event.Type)
	}
}

// announce moves a connection from Connected to Identified. The newest
// connection for a user wins; a displaced one is closed and left to
// unregister itself when its read pump exits. A connection holds at most one
// identity: re-announcing under a new one drops the old entry first.
func (h *Hub) announce(c *Client, userID uuid.UUID) {
	if c.UserID != uuid.Nil && c.UserID != userID {
		if h.presence.Unregister(c) {
			h.active.Clear(c.UserID)
		}
	}
	if displaced := h.presence.Register(userID, c); displaced != nil {
		displaced.disconnect("superseded by newer connection")
	}
	c.UserID = userID
	h.broadcastRoster()
}

// routeMessage delivers a chat message to its receiver, if online, and
// independently decides whether a notification should accompany it. An
// offline receiver means both deliveries are silently dropped; reconnection
// and a fresh fetch are the recovery path.
func (h *Hub) routeMessage(p model.SendMessagePayload) {
	p.Data.Text = h.sanitizer.Sanitize(p.Data.Text)

	receiver, ok := h.presence.Lookup(p.ReceiverID)
	if !ok {
		log.Printf("receiver %s not online, dropping message", p.ReceiverID)
		return
	}

	ev, err := model.NewEnvelope(model.EventGetMessage, p.Data)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	receiver.Deliver(ev)

	// Suppress the notification only when the receiver already has this chat
	// open on screen.
	if open, ok := h.active.Get(p.ReceiverID); ok && open == p.Data.ChatID {
		return
	}

	notif, err := model.NewEnvelope(model.EventNotification, model.NotificationPayload{
		SenderID: p.Data.UserID,
		IsRead:   false,
		Date:     h.now(),
	})
	if err != nil {
		log.Printf("%v", err)
		return
	}
	receiver.Deliver(notif)
}

// broadcastMarkRead relays a read receipt to every other connected client.
// Each client filters locally, which saves the server from keeping a
// chat-to-participants index.
func (h *Hub) broadcastMarkRead(origin *Client, p model.MarkReadPayload) {
	ev, err := model.NewEnvelope(model.EventChatMarkedRead, p)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	for client := range h.clients {
		if client == origin {
			continue
		}
		client.Deliver(ev)
	}
}

// broadcastRoster pushes the full online-user list to every connected client.
func (h *Hub) broadcastRoster() {
	ev, err := model.NewEnvelope(model.EventOnlineUsers, h.presence.UserIDs())
	if err != nil {
		log.Printf("%v", err)
		return
	}
	for client := range h.clients {
		client.Deliver(ev)
	}
}
