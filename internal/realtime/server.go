package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/coder/websocket"

	"github.com/castlemere/estately/internal/model"
)

// ReadPump reads inbound events off the websocket and hands them to the hub.
// It blocks until the connection dies, then unregisters the client.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.Unregister <- c
		c.conn.CloseNow()
	}()

	for {
		msgType, p, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway &&
				status != -1 {
				log.Printf("%v", err)
			}
			return
		}

		// The event surface is text-frame JSON only.
		if msgType != websocket.MessageText {
			continue
		}

		var ev model.Envelope
		if err := json.Unmarshal(p, &ev); err != nil {
			log.Printf("failed to process event from client: %v", err)
			continue
		}

		if ev.Type == model.EventSendMessage && c.messageLim != nil && !c.messageLim.Allow() {
			log.Printf("rate limit hit, dropping message")
			continue
		}

		c.Hub.Inbound <- Inbound{Client: c, Event: ev}
	}
}
