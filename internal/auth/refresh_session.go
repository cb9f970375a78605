package auth

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/castlemere/estately/internal/store"
)

func setJWTCookie(w http.ResponseWriter, jwt string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    jwt,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func setRefreshTokenCookie(w http.ResponseWriter, token string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetTokensAndCookies mints a refresh token and a JWT for userID and attaches
// both as cookies.
func SetTokensAndCookies(w http.ResponseWriter, r *http.Request, db *store.Queries,
	userID uuid.UUID, refreshTokenExp, jwtExp time.Duration) error {

	refreshToken, err := MakeRefreshToken(r.Context(), db, userID, refreshTokenExp)
	if err != nil {
		return fmt.Errorf("internal/auth: failed to make refresh token: %w", err)
	}

	jwtString, err := MakeJWT(userID, os.Getenv("JWT_SECRET"), jwtExp)
	if err != nil {
		return fmt.Errorf("internal/auth: failed to make JWT: %w", err)
	}

	setRefreshTokenCookie(w, refreshToken, refreshTokenExp)
	setJWTCookie(w, jwtString, jwtExp)
	return nil
}

// RefreshSession issues a fresh JWT off a live refresh-token cookie.
func RefreshSession(w http.ResponseWriter, r *http.Request, db *store.Queries) (uuid.UUID, error) {
	refreshTokCookie, err := r.Cookie("refresh_token")
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("internal/auth: no refresh token cookie: %w", err)
	}

	refreshTok, err := db.GetUserFromRefreshTok(r.Context(), refreshTokCookie.Value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("internal/auth: failed to retrieve user from refresh token: %w", err)
	}

	jwtExp := 5 * time.Minute
	jwt, err := MakeJWT(refreshTok.UserID.Bytes, os.Getenv("JWT_SECRET"), jwtExp)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("internal/auth: failed to make JWT: %w", err)
	}

	setJWTCookie(w, jwt, jwtExp)

	return refreshTok.UserID.Bytes, nil
}
