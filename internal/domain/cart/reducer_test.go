package cart

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func item(id string, price float64, stock int) LineItem {
	return LineItem{ProductID: id, Title: "Product " + id, UnitPrice: price, AvailableStock: stock}
}

func assertAggregates(t *testing.T, s State) {
	t.Helper()
	qty := 0
	price := 0.0
	for _, l := range s.Items {
		assert.GreaterOrEqual(t, l.Quantity, 1, "line %s", l.ProductID)
		qty += l.Quantity
		price += l.Subtotal()
	}
	assert.Equal(t, qty, s.TotalQuantity)
	assert.InDelta(t, price, s.TotalPrice, 1e-6)
}

// ============================================
// AddItem Tests
// ============================================

func TestReduce_AddItem_NewLine(t *testing.T) {
	s := Reduce(State{}, AddItem{Item: item("p1", 100, 10), Quantity: 2}, t0)

	require.Len(t, s.Items, 1)
	assert.Equal(t, 2, s.Items[0].Quantity)
	assert.Equal(t, 2, s.TotalQuantity)
	assert.Equal(t, 200.0, s.TotalPrice)
	assert.Equal(t, t0, s.LastUpdatedAt)
}

func TestReduce_AddItem_DefaultQuantityIsOne(t *testing.T) {
	s := Reduce(State{}, AddItem{Item: item("p1", 5, 10)}, t0)

	assert.Equal(t, 1, s.TotalQuantity)
}

func TestReduce_AddItem_IncrementsExisting(t *testing.T) {
	s := Reduce(State{}, AddItem{Item: item("p1", 100, 10), Quantity: 2}, t0)
	s = Reduce(s, AddItem{Item: item("p1", 100, 10), Quantity: 3}, t0.Add(time.Second))

	require.Len(t, s.Items, 1)
	assert.Equal(t, 5, s.Items[0].Quantity)
	assert.Equal(t, 500.0, s.TotalPrice)
	assert.Equal(t, t0.Add(time.Second), s.LastUpdatedAt)
}

func TestReduce_AddItem_StockCeiling(t *testing.T) {
	p := item("p1", 10, 5)

	over := Reduce(State{}, AddItem{Item: p, Quantity: 6}, t0)
	assert.True(t, over.IsEmpty())
	assert.True(t, over.LastUpdatedAt.IsZero())

	s := Reduce(State{}, AddItem{Item: p, Quantity: 5}, t0)
	require.Len(t, s.Items, 1)
	assert.Equal(t, 5, s.Items[0].Quantity)

	after := Reduce(s, AddItem{Item: p, Quantity: 1}, t0.Add(time.Minute))
	assert.Equal(t, 5, after.Items[0].Quantity)
	assert.Equal(t, 5, after.TotalQuantity)
	assert.Equal(t, t0, after.LastUpdatedAt)
}

func TestReduce_AddItem_KeepsInsertionOrder(t *testing.T) {
	s := Reduce(State{}, AddItem{Item: item("a", 1, 9)}, t0)
	s = Reduce(s, AddItem{Item: item("b", 1, 9)}, t0)
	s = Reduce(s, AddItem{Item: item("a", 1, 9)}, t0)

	assert.Equal(t, "a", s.Items[0].ProductID)
	assert.Equal(t, "b", s.Items[1].ProductID)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	s := Reduce(State{}, AddItem{Item: item("a", 1, 9), Quantity: 2}, t0)

	_ = Reduce(s, AddItem{Item: item("a", 1, 9), Quantity: 1}, t0)
	_ = Reduce(s, UpdateQuantity{ProductID: "a", Quantity: 7}, t0)
	_ = Reduce(s, RemoveItem{ProductID: "a"}, t0)

	assert.Equal(t, 2, s.Items[0].Quantity)
	assert.Equal(t, 2, s.TotalQuantity)
}

// ============================================
// RemoveItem Tests
// ============================================

func TestReduce_RemoveItem_ZeroesContribution(t *testing.T) {
	s := Reduce(State{}, AddItem{Item: item("keep", 7, 10), Quantity: 1}, t0)
	s = Reduce(s, AddItem{Item: item("p1", 100, 10), Quantity: 3}, t0)
	before := s

	s = Reduce(s, RemoveItem{ProductID: "p1"}, t0)

	assert.Equal(t, before.TotalPrice-300, s.TotalPrice)
	assert.Equal(t, before.TotalQuantity-3, s.TotalQuantity)
	_, found := s.Find("p1")
	assert.False(t, found)
}

func TestReduce_RemoveItem_NotFound(t *testing.T) {
	s := Reduce(State{}, AddItem{Item: item("p1", 1, 10)}, t0)

	after := Reduce(s, RemoveItem{ProductID: "missing"}, t0.Add(time.Hour))

	assert.Equal(t, s, after)
}

// ============================================
// UpdateQuantity Tests
// ============================================

func TestReduce_UpdateQuantity_AppliesDiff(t *testing.T) {
	s := Reduce(State{}, AddItem{Item: item("p1", 10, 10), Quantity: 4}, t0)

	s = Reduce(s, UpdateQuantity{ProductID: "p1", Quantity: 2}, t0)

	assert.Equal(t, 2, s.Items[0].Quantity)
	assert.Equal(t, 2, s.TotalQuantity)
	assert.Equal(t, 20.0, s.TotalPrice)
}

// The reducer leaves stock clamping to callers on update.
func TestReduce_UpdateQuantity_BypassesStockCeiling(t *testing.T) {
	s := Reduce(State{}, AddItem{Item: item("p1", 1, 5), Quantity: 1}, t0)

	s = Reduce(s, UpdateQuantity{ProductID: "p1", Quantity: 999}, t0)

	assert.Equal(t, 999, s.Items[0].Quantity)
	assert.Equal(t, 999, s.TotalQuantity)
}

func TestReduce_UpdateQuantity_ZeroRemovesLine(t *testing.T) {
	s := Reduce(State{}, AddItem{Item: item("p1", 10, 5), Quantity: 2}, t0)

	s = Reduce(s, UpdateQuantity{ProductID: "p1", Quantity: 0}, t0)

	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.TotalQuantity)
	assert.Equal(t, 0.0, s.TotalPrice)
}

func TestReduce_UpdateQuantity_NotFound(t *testing.T) {
	s := State{}
	assert.Equal(t, s, Reduce(s, UpdateQuantity{ProductID: "x", Quantity: 3}, t0))
}

// ============================================
// Clear Tests
// ============================================

func TestReduce_Clear(t *testing.T) {
	s := Reduce(State{}, AddItem{Item: item("p1", 10, 5), Quantity: 2}, t0)

	s = Reduce(s, Clear{}, t0.Add(time.Second))

	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.TotalQuantity)
	assert.Equal(t, 0.0, s.TotalPrice)
	assert.Equal(t, t0.Add(time.Second), s.LastUpdatedAt)
}

// ============================================
// Aggregate Consistency
// ============================================

func TestReduce_AggregatesHoldForRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ids := []string{"a", "b", "c", "d"}
	prices := map[string]float64{"a": 1.25, "b": 10, "c": 99.99, "d": 0}

	for run := 0; run < 50; run++ {
		s := State{}
		for step := 0; step < 40; step++ {
			id := ids[rng.Intn(len(ids))]
			var action Action
			switch rng.Intn(7) {
			case 0, 1, 2:
				action = AddItem{Item: item(id, prices[id], 8), Quantity: rng.Intn(4)}
			case 3:
				action = RemoveItem{ProductID: id}
			case 4, 5:
				action = UpdateQuantity{ProductID: id, Quantity: rng.Intn(12) - 1}
			case 6:
				action = Clear{}
			}
			s = Reduce(s, action, t0)
			assertAggregates(t, s)
		}
	}
}

func TestCanAdd(t *testing.T) {
	s := Reduce(State{}, AddItem{Item: item("p1", 1, 5), Quantity: 3}, t0)

	assert.True(t, CanAdd(s, item("p1", 1, 5), 2))
	assert.False(t, CanAdd(s, item("p1", 1, 5), 3))
	assert.True(t, CanAdd(s, item("p2", 1, 1), 0))
	assert.False(t, CanAdd(s, item("p3", 1, 0), 1))
}

func TestGetCartID(t *testing.T) {
	assert.Equal(t, "cart-user-123", GetCartID("user-123"))
	assert.Equal(t, "cart-", GetCartID(""))
}
