package handler

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/castlemere/estately/internal/auth"
	"github.com/castlemere/estately/internal/store"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles user account creation.
func Signup(db *store.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req signupRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		if req.Username == "" || req.Email == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "Username, email and password are required.")
			return
		}

		user, err := db.CreateUser(ctx, store.CreateUserParams{
			UserID:   pgtype.UUID{Bytes: uuid.New(), Valid: true},
			Username: req.Username,
			Email:    req.Email,
			Avatar:   req.Avatar,
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to create user.")
			log.Printf("failed to create user entry in database: %v", err)
			return
		}

		hashedPw, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Server error.")
			log.Printf("argon2id hash creation failed: %v", err)
			return
		}

		err = db.CreatePassword(ctx, store.CreatePasswordParams{
			UserID:         pgtype.UUID{Bytes: user.ID, Valid: true},
			HashedPassword: hashedPw,
			CreatedAt:      pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true},
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to create user.")
			log.Printf("failed to create password entry in database: %v", err)
			return
		}

		respondJSON(w, http.StatusCreated, user.Public())

		slog.InfoContext(ctx, "user signed up",
			slog.String("username", user.Username))
	}
}

// Login handles user login.
func Login(db *store.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}

		row, err := db.GetUserWithPasswordByEmail(ctx, req.Email)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid email or password.")
			log.Printf("failed to retrieve user from db: %v", err)
			return
		}

		ok, err := auth.CheckPasswordHash(req.Password, row.HashedPassword)
		if err != nil || !ok {
			respondError(w, http.StatusUnauthorized, "Invalid email or password.")
			return
		}

		refreshTokenExp := 7 * 24 * time.Hour
		jwtExp := 5 * time.Minute
		err = auth.SetTokensAndCookies(w, r, db, row.User.ID, refreshTokenExp, jwtExp)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Server error.")
			log.Printf("%v", err)
			return
		}

		respondJSON(w, http.StatusOK, row.User)

		slog.InfoContext(ctx, "user logged in",
			slog.String("username", row.User.Username))
	}
}

// Logout deletes the user's refresh token and clears both cookies.
func Logout(db *store.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		refreshTok, err := r.Cookie("refresh_token")
		if err == nil {
			if err := db.RevokeRefreshToken(ctx, refreshTok.Value); err != nil {
				log.Printf("failed to process token deletion: %v", err)
			}
		}

		clearCookie := func(w http.ResponseWriter, name string) {
			http.SetCookie(w, &http.Cookie{
				Name:     name,
				Value:    "",
				Path:     "/",
				MaxAge:   -1,
				Secure:   true,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		clearCookie(w, "jwt")
		clearCookie(w, "refresh_token")
		respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out."})

		log.Printf("user logged out")
	}
}

// RefreshToken handles issuance of a fresh JWT off the refresh-token cookie.
func RefreshToken(db *store.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := auth.RefreshSession(w, r, db)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized.")
			log.Printf("handler/refresh token: %v", err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{"userId": userID.String()})
	}
}
