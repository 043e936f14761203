package order

import (
	"errors"
	"time"

	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/readmodel"
	"github.com/google/uuid"
)

var ErrEmptyOrder = errors.New("order must have at least one item")

// FromCart builds the order document for the current cart. The client reference is a
// fresh UUID; the database assigns the order ID on creation.
func FromCart(state cart.State, now time.Time) (readmodel.Order, error) {
	if state.IsEmpty() {
		return readmodel.Order{}, ErrEmptyOrder
	}

	o := readmodel.Order{
		Reference:     uuid.NewString(),
		Items:         make([]readmodel.OrderItem, 0, len(state.Items)),
		TotalAmount:   state.TotalPrice,
		TotalQuantity: state.TotalQuantity,
		Status:        readmodel.OrderStatusPlaced,
		CreatedAt:     now.UTC(),
	}
	for _, item := range state.Items {
		o.Items = append(o.Items, readmodel.OrderItem{
			ProductID: item.ProductID,
			Title:     item.Title,
			Price:     item.UnitPrice,
			Quantity:  item.Quantity,
			Image:     item.Image,
		})
	}
	return o, nil
}
