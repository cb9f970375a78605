// Package model defines data structure.
package model

import (
	"time"

	"github.com/google/uuid"
)

// User holds a full account record.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

// PublicUser is the profile slice other users are allowed to see.
type PublicUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
}

// Public strips the private fields off a User.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}
