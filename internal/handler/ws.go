package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/castlemere/estately/internal/auth"
	"github.com/castlemere/estately/internal/realtime"
	"github.com/castlemere/estately/internal/store"
)

// ServeWs handles the client's websocket connection upgrade.
func ServeWs(h *realtime.Hub, db *store.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Printf("failed to upgrade connection: %v", err)
			return
		}

		user, err := db.GetUserByID(ctx, pgtype.UUID{Bytes: userID, Valid: true})
		if err != nil {
			conn.Close(websocket.StatusPolicyViolation, "unknown user")
			log.Printf("%v", err)
			return
		}
		log.Printf("upgraded connection for user %s", user.Username)

		// We'll register our new client to the central hub. Identity still
		// comes from the announce event; the upgrade only proves the session.
		c := realtime.NewClient(conn)
		c.SetMessageLimiter(10, time.Second)
		reg := realtime.Registration{
			Client: c,
			Done:   make(chan struct{}),
		}

		h.Register <- reg

		// Wait for registration to complete
		<-reg.Done

		// We block on c.ReadPump() because the request context is cancelled as
		// soon as we return from the handler.
		go c.WritePump(ctx)
		c.ReadPump(ctx)
	}
}
