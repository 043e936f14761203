package store

import "context"

// SessionStore persists the single signed-in session on the device.
type SessionStore interface {
	// SaveSession replaces any existing session with record.
	SaveSession(ctx context.Context, record SessionRecord) error

	// GetSession returns the newest session, or nil when nobody is signed in.
	GetSession(ctx context.Context) (*SessionRecord, error)

	// ClearSession deletes every session row.
	ClearSession(ctx context.Context) error
}

// CartCache persists cart lines on the device.
type CartCache interface {
	// SaveCartItem inserts item, or adds item.Quantity to the stored quantity of an
	// existing row with the same product ID.
	SaveCartItem(ctx context.Context, item CartRow) error

	// GetCartItems returns all rows, most recently added first.
	GetCartItems(ctx context.Context) ([]CartRow, error)

	// GetCartItemByID returns the row for productID, or nil when absent.
	GetCartItemByID(ctx context.Context, productID string) (*CartRow, error)

	// UpdateCartItemQuantity overwrites the quantity; a quantity <= 0 deletes the row.
	UpdateCartItemQuantity(ctx context.Context, productID string, quantity int) error

	// RemoveCartItem deletes the row for productID.
	RemoveCartItem(ctx context.Context, productID string) error

	// ClearCart deletes every row.
	ClearCart(ctx context.Context) error

	// ReplaceCart atomically deletes every row and inserts items in their given order.
	ReplaceCart(ctx context.Context, items []CartRow) error
}

// LocalCache is the on-device store backing sessions and the cart.
type LocalCache interface {
	SessionStore
	CartCache
}
