// Package cartsync keeps the in-memory cart and the device cache consistent. The cache
// rehydrates the cart once per mount; afterwards every change is written back as a
// debounced replace-snapshot, or as a clear once the cart is emptied.
package cartsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/logging"
	"github.com/sirupsen/logrus"
)

const (
	DefaultDebounce     = 100 * time.Millisecond
	DefaultWriteTimeout = 5 * time.Second
)

var (
	ErrAlreadyMounted = errors.New("cart sync already mounted")
	ErrClosed         = errors.New("cart sync closed")
)

// Mirror receives every cart snapshot after it has been written to the device cache.
type Mirror interface {
	Name() string
	MirrorCart(ctx context.Context, state cart.State) error
}

type Config struct {
	Debounce     time.Duration
	WriteTimeout time.Duration
	Mirrors      []Mirror
	Logger       logrus.FieldLogger
}

type Synchronizer struct {
	store        *cart.Store
	cache        store.CartCache
	mirrors      []Mirror
	debounce     time.Duration
	writeTimeout time.Duration
	log          logrus.FieldLogger

	mu          sync.Mutex
	mounted     bool
	loading     bool
	closed      bool
	timer       *time.Timer
	generation  int
	unsubscribe func()

	// writes counts the scheduled and in-flight writes Close waits for
	writes  sync.WaitGroup
	writeMu sync.Mutex
}

func New(cartStore *cart.Store, cache store.CartCache, cfg Config) *Synchronizer {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	return &Synchronizer{
		store:        cartStore,
		cache:        cache,
		mirrors:      cfg.Mirrors,
		debounce:     cfg.Debounce,
		writeTimeout: cfg.WriteTimeout,
		log:          logging.Component(cfg.Logger, "cartsync"),
	}
}

// Mount subscribes to the cart and loads the cached lines into it. A cache failure is
// logged and leaves the cart empty; it does not fail the mount.
func (s *Synchronizer) Mount(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.mounted {
		s.mu.Unlock()
		return ErrAlreadyMounted
	}
	s.mounted = true
	// set before the first load dispatch, cleared after the last one
	s.loading = true
	s.unsubscribe = s.store.Subscribe(s.onChange)
	s.mu.Unlock()

	defer s.finishLoad()

	rows, err := s.cache.GetCartItems(ctx)
	if err != nil {
		s.log.WithError(err).Warn("failed to load cached cart, starting empty")
		return nil
	}

	// rows come back newest first; replay oldest first to keep insertion order
	loaded := 0
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		_, ok := s.store.Dispatch(cart.AddItem{
			Item: cart.LineItem{
				ProductID:      row.ProductID,
				Title:          row.Title,
				UnitPrice:      row.Price,
				AvailableStock: cart.LoadedStockCeiling,
				Image:          row.Image,
			},
			Quantity: row.Quantity,
		})
		if ok {
			loaded++
		}
	}

	s.log.WithFields(logrus.Fields{"rows": len(rows), "loaded": loaded}).Debug("cart rehydrated")
	return nil
}

func (s *Synchronizer) finishLoad() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *Synchronizer) onChange(state cart.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading || s.closed {
		return
	}

	// restart the debounce window
	if s.timer != nil && s.timer.Stop() {
		s.writes.Done()
	}
	s.timer = nil

	s.generation++
	gen := s.generation
	s.writes.Add(1)
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(gen) })
}

func (s *Synchronizer) fire(gen int) {
	defer s.writes.Done()

	s.mu.Lock()
	if s.generation == gen {
		s.timer = nil
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	s.flush(ctx)
}

// flush writes the current cart, not the state that scheduled the write. An empty cart
// clears the cached lines instead of writing a snapshot.
func (s *Synchronizer) flush(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	state := s.store.State()
	if state.IsEmpty() {
		if err := s.cache.ClearCart(ctx); err != nil {
			s.log.WithError(err).Warn("failed to clear cached cart")
			return
		}
		s.log.Debug("cached cart cleared")
		s.mirror(ctx, state)
		return
	}

	rows := make([]store.CartRow, 0, len(state.Items))
	for _, item := range state.Items {
		rows = append(rows, store.CartRow{
			ProductID: item.ProductID,
			Title:     item.Title,
			Price:     item.UnitPrice,
			Quantity:  item.Quantity,
			Image:     item.Image,
		})
	}

	if err := s.cache.ReplaceCart(ctx, rows); err != nil {
		s.log.WithError(err).Warn("failed to persist cart")
		return
	}
	s.log.WithFields(logrus.Fields{
		"items":          len(rows),
		"total_quantity": state.TotalQuantity,
	}).Debug("cart persisted")
	s.mirror(ctx, state)
}

func (s *Synchronizer) mirror(ctx context.Context, state cart.State) {
	for _, m := range s.mirrors {
		if err := m.MirrorCart(ctx, state); err != nil {
			s.log.WithError(err).WithField("mirror", m.Name()).Warn("failed to mirror cart")
		}
	}
}

// Close stops listening, writes any pending change immediately and waits for writes
// already in flight, or until ctx is done.
func (s *Synchronizer) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	unsubscribe := s.unsubscribe
	pending := s.timer != nil && s.timer.Stop()
	s.timer = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if pending {
		s.flush(ctx)
		s.writes.Done()
	}

	done := make(chan struct{})
	go func() {
		s.writes.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
