package store

import "time"

// SessionRecord is the persisted sign-in state.
type SessionRecord struct {
	Email        string    `json:"email"`
	LocalID      string    `json:"local_id"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	ProfileImage string    `json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CartRow is a persisted cart line. Stock levels are not stored.
type CartRow struct {
	ProductID string    `json:"product_id"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
