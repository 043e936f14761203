package cart

// Action is a cart state transition. The set is closed: AddItem, RemoveItem,
// UpdateQuantity and Clear.
type Action interface {
	actionName() string
}

// AddItem inserts a line or increments an existing one, subject to the stock ceiling.
// A zero Quantity means one.
type AddItem struct {
	Item     LineItem
	Quantity int
}

// RemoveItem deletes the line for ProductID.
type RemoveItem struct {
	ProductID string
}

// UpdateQuantity sets the quantity of an existing line. The stock ceiling is not
// checked here; callers clamp before dispatching.
type UpdateQuantity struct {
	ProductID string
	Quantity  int
}

// Clear empties the cart.
type Clear struct{}

func (AddItem) actionName() string        { return "AddItem" }
func (RemoveItem) actionName() string     { return "RemoveItem" }
func (UpdateQuantity) actionName() string { return "UpdateQuantity" }
func (Clear) actionName() string          { return "Clear" }

// ActionName returns a stable name for logging.
func ActionName(a Action) string {
	if a == nil {
		return ""
	}
	return a.actionName()
}
