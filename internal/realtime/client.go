package realtime

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/castlemere/estately/internal/model"
)

// Client is one live socket connection. UserID is zero until the connection
// announces itself; it is owned by the hub goroutine.
type Client struct {
	UserID     uuid.UUID
	Hub        *Hub
	conn       *websocket.Conn
	send       chan model.Envelope
	messageLim *rate.Limiter
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		send: make(chan model.Envelope, 64),
	}
}

func (c *Client) SetMessageLimiter(requests int, window time.Duration) {
	c.messageLim = rate.NewLimiter(rate.Every(window/time.Duration(requests)), requests)
}

// Deliver queues an event for the write pump. A slow client loses events
// rather than stalling the hub; reconnect plus a fresh fetch repairs any gap.
func (c *Client) Deliver(ev model.Envelope) {
	select {
	case c.send <- ev:
	default:
		log.Println("skipping event - channel full or client slow")
	}
}

// disconnect force-closes the transport. The read pump observes the close and
// drives the normal unregister path.
func (c *Client) disconnect(reason string) {
	if c.conn == nil {
		return
	}
	c.conn.Close(websocket.StatusPolicyViolation, reason)
}

// WritePump drains the send channel onto the websocket until the channel is
// closed by the hub or ctx is cancelled.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := wsjson.Write(writeCtx, c.conn, ev); err != nil {
				slog.WarnContext(ctx, "failed to write event",
					"error", err,
					"event_type", ev.Type)
			}
			cancel()

		case <-ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "context cancelled")
			return
		}
	}
}
