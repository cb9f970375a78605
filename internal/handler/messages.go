package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/microcosm-cc/bluemonday"

	"github.com/castlemere/estately/internal/auth"
	"github.com/castlemere/estately/internal/store"
)

var messagePolicy = bluemonday.StrictPolicy()

type createMessageRequest struct {
	Text string `json:"text"`
}

// CreateMessage persists a message to a chat the current user participates
// in and returns the stored record. Delivery to the receiver goes through the
// socket separately; this is the durable write path.
func CreateMessage(db *store.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}

		chatID, err := uuid.Parse(chi.URLParam(r, "chatId"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid chat id.")
			return
		}

		var req createMessageRequest
		if err := decodeJSON(r, &req); err != nil || req.Text == "" {
			respondError(w, http.StatusBadRequest, "Text is required.")
			return
		}

		// We need to sanitize incoming messages to prevent XSS.
		text := messagePolicy.Sanitize(req.Text)

		msg, err := db.CreateMessage(ctx, store.CreateMessageParams{
			ChatID:    pgUUIDFrom(chatID),
			UserID:    pgUUIDFrom(userID),
			Text:      text,
			CreatedAt: pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true},
		})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "Chat not found.")
				return
			}
			respondError(w, http.StatusInternalServerError, "Failed to add message!")
			log.Printf("failed to store message to database: %v", err)
			return
		}

		respondJSON(w, http.StatusOK, msg)
	}
}

// ListChatMessages returns a chat's transcript in creation order.
func ListChatMessages(db *store.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if _, err := auth.GetUserFromContext(ctx); err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}

		chatID, err := uuid.Parse(chi.URLParam(r, "chatId"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid chat id.")
			return
		}

		messages, err := db.ListMessages(ctx, chatID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to get messages!")
			log.Printf("failed to load messages from database: %v", err)
			return
		}

		respondJSON(w, http.StatusOK, messages)
	}
}
