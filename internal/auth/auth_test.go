package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	userID := uuid.New()
	secret := "test-secret"

	tokenStr, err := MakeJWT(userID, secret, 5*time.Minute)
	require.NoError(t, err)

	got, err := ValidateJWT(tokenStr, secret)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWTValidation(t *testing.T) {
	userID := uuid.New()
	secret := "test-secret"

	tests := []struct {
		Name      string
		expiresIn time.Duration
		secret    string
		wantErr   bool
	}{
		{"valid", 5 * time.Minute, secret, false},
		{"expired", -1 * time.Second, secret, true},
		{"wrong_secret", 5 * time.Minute, "other-secret", true},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			tokenStr, err := MakeJWT(userID, secret, tt.expiresIn)
			require.NoError(t, err)

			_, err = ValidateJWT(tokenStr, tt.secret)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateJWTGarbage(t *testing.T) {
	_, err := ValidateJWT("not-a-token", "secret")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", hash)

	ok, err := CheckPasswordHash("hunter2hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = CheckPasswordHash("wrong-password", hash)
	assert.Error(t, err)
}

func TestGetUserFromContext(t *testing.T) {
	userID := uuid.New()
	ctx := context.WithValue(context.Background(), UserIDKey, userID)

	got, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = GetUserFromContext(context.Background())
	assert.Error(t, err)
}
