package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/castlemere/estately/internal/auth"
	"github.com/castlemere/estately/internal/store"
)

// NotificationCount returns how many chats the current user has not seen yet.
// Clients seed the badge from this on login and reconnect.
func NotificationCount(db *store.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}

		count, err := db.CountUnseenChats(ctx, userID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to get notification count!")
			log.Printf("%v", err)
			return
		}

		respondJSON(w, http.StatusOK, count)
	}
}

type savePostRequest struct {
	PostID uuid.UUID `json:"postId"`
}

// SavePost toggles a post in the current user's saved list and reports the
// resulting state. This is the persistence half of the client's optimistic
// favorite toggle.
func SavePost(db *store.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}

		var req savePostRequest
		if err := decodeJSON(r, &req); err != nil || req.PostID == uuid.Nil {
			respondError(w, http.StatusBadRequest, "Post ID is required.")
			return
		}

		if _, err := db.GetPost(ctx, req.PostID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "Post not found.")
				return
			}
			respondError(w, http.StatusInternalServerError, "Failed to save post!")
			log.Printf("%v", err)
			return
		}

		saved, err := db.ToggleSavedPost(ctx, userID, req.PostID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to save post!")
			log.Printf("%v", err)
			return
		}

		msg := "Post removed from saved list."
		if saved {
			msg = "Post saved."
		}
		respondJSON(w, http.StatusOK, map[string]any{"message": msg, "saved": saved})
	}
}

// ProfilePosts returns both the listings the current user owns and the ones
// they saved.
func ProfilePosts(db *store.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}

		userPosts, err := db.ListUserPosts(ctx, userID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to get profile posts!")
			log.Printf("%v", err)
			return
		}

		savedPosts, err := db.ListSavedPosts(ctx, userID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to get profile posts!")
			log.Printf("%v", err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{
			"userPosts":  userPosts,
			"savedPosts": savedPosts,
		})
	}
}
