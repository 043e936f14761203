package cart

import (
	"errors"
	"time"
)

// LoadedStockCeiling is the stock assumed for lines rehydrated from the device cache,
// which does not persist real stock levels.
const LoadedStockCeiling = 1 << 30

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product_id is required")
)

// LineItem is one product-and-quantity pair in the cart.
type LineItem struct {
	ProductID      string  `json:"product_id"`
	Title          string  `json:"title"`
	UnitPrice      float64 `json:"unit_price"`
	Quantity       int     `json:"quantity"`
	AvailableStock int     `json:"available_stock"`
	Image          string  `json:"image,omitempty"`
}

// Subtotal is UnitPrice * Quantity.
func (l LineItem) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// State is an immutable cart snapshot. Items keep insertion order; the totals are
// maintained on every transition rather than recomputed.
type State struct {
	Items         []LineItem `json:"items"`
	TotalQuantity int        `json:"total_quantity"`
	TotalPrice    float64    `json:"total_price"`
	LastUpdatedAt time.Time  `json:"last_updated_at"`
}

// IsEmpty reports whether the cart has no lines.
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

// Find returns the line for productID.
func (s State) Find(productID string) (LineItem, bool) {
	if i := s.indexOf(productID); i >= 0 {
		return s.Items[i], true
	}
	return LineItem{}, false
}

func (s State) indexOf(productID string) int {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// CanAdd applies the stock ceiling used by AddItem: the line quantity after adding
// quantity must not exceed item.AvailableStock.
func CanAdd(s State, item LineItem, quantity int) bool {
	if quantity <= 0 {
		quantity = 1
	}
	newQty := quantity
	if existing, ok := s.Find(item.ProductID); ok {
		newQty += existing.Quantity
	}
	return newQty <= item.AvailableStock
}

// Reduce applies action to s and returns the next state. s is never modified.
// Rejected or unmatched actions return s unchanged, including LastUpdatedAt.
func Reduce(s State, action Action, now time.Time) State {
	next, _ := apply(s, action, now)
	return next
}

// apply is Reduce plus whether the action took effect.
func apply(s State, action Action, now time.Time) (State, bool) {
	switch a := action.(type) {
	case AddItem:
		return s.addItem(a, now)
	case RemoveItem:
		return s.removeItem(a, now)
	case UpdateQuantity:
		return s.updateQuantity(a, now)
	case Clear:
		return State{Items: []LineItem{}, LastUpdatedAt: now}, true
	}
	return s, false
}

func (s State) addItem(a AddItem, now time.Time) (State, bool) {
	quantity := a.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	if !CanAdd(s, a.Item, quantity) {
		return s, false
	}

	// an existing line keeps its original price so the totals stay exact sums
	next := s.clone()
	unitPrice := a.Item.UnitPrice
	if i := next.indexOf(a.Item.ProductID); i >= 0 {
		next.Items[i].Quantity += quantity
		unitPrice = next.Items[i].UnitPrice
	} else {
		line := a.Item
		line.Quantity = quantity
		next.Items = append(next.Items, line)
	}
	next.TotalQuantity += quantity
	next.TotalPrice += unitPrice * float64(quantity)
	next.LastUpdatedAt = now
	return next, true
}

func (s State) removeItem(a RemoveItem, now time.Time) (State, bool) {
	i := s.indexOf(a.ProductID)
	if i < 0 {
		return s, false
	}

	line := s.Items[i]
	next := s.clone()
	next.Items = append(next.Items[:i], next.Items[i+1:]...)
	next.TotalQuantity -= line.Quantity
	next.TotalPrice -= line.Subtotal()
	next.LastUpdatedAt = now
	return next, true
}

// updateQuantity does not check stock. A non-positive quantity removes the line so the
// cart never holds a zero-quantity line.
func (s State) updateQuantity(a UpdateQuantity, now time.Time) (State, bool) {
	i := s.indexOf(a.ProductID)
	if i < 0 {
		return s, false
	}
	if a.Quantity <= 0 {
		return s.removeItem(RemoveItem{ProductID: a.ProductID}, now)
	}

	next := s.clone()
	line := &next.Items[i]
	diff := a.Quantity - line.Quantity
	line.Quantity = a.Quantity
	next.TotalQuantity += diff
	next.TotalPrice += line.UnitPrice * float64(diff)
	next.LastUpdatedAt = now
	return next, true
}

func (s State) clone() State {
	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)
	s.Items = items
	return s
}
