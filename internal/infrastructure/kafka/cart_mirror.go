package kafka

import (
	"context"

	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/google/uuid"
)

// Identity reports the signed-in user id, or ok=false when signed out.
type Identity interface {
	UserID() (userID string, ok bool)
}

// CartMirror publishes a CartSnapshotted event for every persisted cart.
type CartMirror struct {
	producer *Producer
	identity Identity
}

func NewCartMirror(producer *Producer, identity Identity) *CartMirror {
	return &CartMirror{producer: producer, identity: identity}
}

func (m *CartMirror) Name() string { return "kafka" }

// MirrorCart publishes anonymous carts under the "anonymous" user.
func (m *CartMirror) MirrorCart(ctx context.Context, state cart.State) error {
	userID, ok := m.identity.UserID()
	if !ok {
		userID = "anonymous"
	}
	event := cart.CartSnapshotted{
		EventID:       uuid.NewString(),
		CartID:        cart.GetCartID(userID),
		UserID:        userID,
		Items:         state.Items,
		TotalQuantity: state.TotalQuantity,
		TotalPrice:    state.TotalPrice,
		SnapshotAt:    state.LastUpdatedAt,
	}
	return m.producer.Publish(ctx, event.CartID, cart.EventCartSnapshotted, event)
}
