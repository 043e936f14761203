package cart

import "time"

const EventCartSnapshotted = "CartSnapshotted"

// CartSnapshotted is published after the device cache has been replaced with the
// current cart contents.
type CartSnapshotted struct {
	EventID       string     `json:"event_id"`
	CartID        string     `json:"cart_id"`
	UserID        string     `json:"user_id"`
	Items         []LineItem `json:"items"`
	TotalQuantity int        `json:"total_quantity"`
	TotalPrice    float64    `json:"total_price"`
	SnapshotAt    time.Time  `json:"snapshot_at"`
}

// GetCartID returns the cart ID for a user (the user ID doubles as the cart key)
func GetCartID(userID string) string {
	return "cart-" + userID
}
