// Package internal holds cross-cutting HTTP middleware.
package internal

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/castlemere/estately/internal/auth"
	"github.com/castlemere/estately/internal/store"
)

// Middleware validates the client's JWT, falling back to the refresh token,
// and puts the user id on the request context.
func Middleware(db *store.Queries) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// A revoked refresh token means the session is gone regardless of
			// what the JWT still says.
			refreshTokCookie, err := r.Cookie("refresh_token")
			if err == nil {
				exists, err := db.DoesRefreshTokenExist(r.Context(), refreshTokCookie.Value)
				if err != nil || !exists {
					http.Error(w, "Unauthorized.", http.StatusUnauthorized)
					return
				}
			}

			jwtCookie, err := r.Cookie("jwt")
			// Check JWT if it exists. If it does, validate the JWT. If valid,
			// append user ID to context and serve the next handler.
			if err == nil {
				uuid, err := auth.ValidateJWT(jwtCookie.Value, os.Getenv("JWT_SECRET"))
				if err == nil {
					r = r.WithContext(context.WithValue(r.Context(), auth.UserIDKey, uuid))
					next.ServeHTTP(w, r)
					return
				}
			}

			// If JWT does not exist or is not valid, check refresh token if it
			// exists. If it does, create a new JWT, append user ID to context
			// and serve the next handler.
			userID, err := auth.RefreshSession(w, r, db)
			if err != nil {
				log.Printf("middleware: %v", err)
				http.Error(w, "Unauthorized.", http.StatusUnauthorized)
				return
			}

			r = r.WithContext(context.WithValue(r.Context(), auth.UserIDKey, userID))
			next.ServeHTTP(w, r)
		})
	}
}
