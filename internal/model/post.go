package model

import (
	"time"

	"github.com/google/uuid"
)

// Post is a property listing.
type Post struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Title     string    `json:"title"`
	Price     int64     `json:"price"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Bedroom   int32     `json:"bedroom"`
	Bathroom  int32     `json:"bathroom"`
	Latitude  string    `json:"latitude"`
	Longitude string    `json:"longitude"`
	Images    []string  `json:"images"`
	Type      string    `json:"type"`     // buy | rent
	Property  string    `json:"property"` // apartment | house | condo | land
	CreatedAt time.Time `json:"createdAt"`
}
