package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/castlemere/estately/internal/auth"
	"github.com/castlemere/estately/internal/model"
	"github.com/castlemere/estately/internal/store"
)

// ListPosts returns listings matching the optional query filters.
func ListPosts(db *store.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		q := r.URL.Query()
		minPrice, _ := strconv.ParseInt(q.Get("minPrice"), 10, 64)
		maxPrice, _ := strconv.ParseInt(q.Get("maxPrice"), 10, 64)

		posts, err := db.ListPosts(ctx, store.ListPostsParams{
			City:     q.Get("city"),
			Type:     q.Get("type"),
			MinPrice: minPrice,
			MaxPrice: maxPrice,
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to get posts!")
			log.Printf("%v", err)
			return
		}

		respondJSON(w, http.StatusOK, posts)
	}
}

// GetPost returns a single listing.
func GetPost(db *store.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		postID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid post id.")
			return
		}

		post, err := db.GetPost(ctx, postID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "Post not found.")
				return
			}
			respondError(w, http.StatusInternalServerError, "Failed to get post!")
			log.Printf("%v", err)
			return
		}

		respondJSON(w, http.StatusOK, post)
	}
}

// CreatePost creates a listing owned by the current user.
func CreatePost(db *store.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}

		var req model.Post
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		if req.Title == "" || req.Price <= 0 {
			respondError(w, http.StatusBadRequest, "Title and a positive price are required.")
			return
		}

		post, err := db.CreatePost(ctx, store.CreatePostParams{
			UserID:    pgUUIDFrom(userID),
			Title:     req.Title,
			Price:     req.Price,
			Address:   req.Address,
			City:      req.City,
			Bedroom:   req.Bedroom,
			Bathroom:  req.Bathroom,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			Images:    req.Images,
			Type:      req.Type,
			Property:  req.Property,
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to create post!")
			log.Printf("%v", err)
			return
		}

		respondJSON(w, http.StatusCreated, post)
	}
}

// DeletePost removes a listing the current user owns.
func DeletePost(db *store.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}

		postID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid post id.")
			return
		}

		if err := db.DeletePost(ctx, postID, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "Post not found.")
				return
			}
			respondError(w, http.StatusInternalServerError, "Failed to delete post!")
			log.Printf("%v", err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{"message": "Post deleted."})
	}
}
