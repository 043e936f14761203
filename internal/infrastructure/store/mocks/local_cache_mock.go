package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-storefront/internal/infrastructure/store"
)

var _ store.LocalCache = (*MockLocalCache)(nil)

// MockLocalCache is an in-memory LocalCache for testing
type MockLocalCache struct {
	mu      sync.Mutex
	session *store.SessionRecord
	items   []store.CartRow // newest first

	// For tracking calls in tests
	ReplaceCalls  [][]store.CartRow
	SaveCalls     []store.CartRow
	SessionSaves  []store.SessionRecord
	ClearCalls    int
	GetItemsCalls int

	// Injected failures
	GetItemsErr    error
	ReplaceErr     error
	ClearErr       error
	SessionErr     error
	SaveSessionErr error

	// ReplaceHook runs inside ReplaceCart before the write, without the lock held
	ReplaceHook func(items []store.CartRow)
}

// NewMockLocalCache creates a new MockLocalCache
func NewMockLocalCache() *MockLocalCache {
	return &MockLocalCache{}
}

// SeedCart sets the cart rows, newest first
func (m *MockLocalCache) SeedCart(rows ...store.CartRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]store.CartRow(nil), rows...)
}

// SeedSession sets the stored session
func (m *MockLocalCache) SeedSession(record store.SessionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &record
}

// Items returns a copy of the stored rows, newest first
func (m *MockLocalCache) Items() []store.CartRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.CartRow(nil), m.items...)
}

// ReplaceCount returns how many times ReplaceCart ran
func (m *MockLocalCache) ReplaceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ReplaceCalls)
}

// ClearCount returns how many times ClearCart ran
func (m *MockLocalCache) ClearCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ClearCalls
}

func (m *MockLocalCache) SaveSession(ctx context.Context, record store.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SessionSaves = append(m.SessionSaves, record)
	if m.SaveSessionErr != nil {
		return m.SaveSessionErr
	}
	m.session = &record
	return nil
}

func (m *MockLocalCache) GetSession(ctx context.Context) (*store.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SessionErr != nil {
		return nil, m.SessionErr
	}
	if m.session == nil {
		return nil, nil
	}
	s := *m.session
	return &s, nil
}

func (m *MockLocalCache) ClearSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

func (m *MockLocalCache) SaveCartItem(ctx context.Context, item store.CartRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls = append(m.SaveCalls, item)
	for i := range m.items {
		if m.items[i].ProductID == item.ProductID {
			m.items[i].Quantity += item.Quantity
			return nil
		}
	}
	m.items = append([]store.CartRow{item}, m.items...)
	return nil
}

func (m *MockLocalCache) GetCartItems(ctx context.Context) ([]store.CartRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetItemsCalls++
	if m.GetItemsErr != nil {
		return nil, m.GetItemsErr
	}
	return append([]store.CartRow{}, m.items...), nil
}

func (m *MockLocalCache) GetCartItemByID(ctx context.Context, productID string) (*store.CartRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ProductID == productID {
			found := item
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockLocalCache) UpdateCartItemQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return m.RemoveCartItem(ctx, productID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ProductID == productID {
			m.items[i].Quantity = quantity
		}
	}
	return nil
}

func (m *MockLocalCache) RemoveCartItem(ctx context.Context, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	for _, item := range m.items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	m.items = kept
	return nil
}

func (m *MockLocalCache) ClearCart(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearCalls++
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.items = nil
	return nil
}

func (m *MockLocalCache) ReplaceCart(ctx context.Context, items []store.CartRow) error {
	if m.ReplaceHook != nil {
		m.ReplaceHook(items)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReplaceCalls = append(m.ReplaceCalls, append([]store.CartRow(nil), items...))
	if m.ReplaceErr != nil {
		return m.ReplaceErr
	}
	m.items = make([]store.CartRow, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		m.items = append(m.items, items[i])
	}
	return nil
}
