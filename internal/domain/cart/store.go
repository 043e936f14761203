package cart

import (
	"sync"
	"time"
)

// Listener is notified with the state produced by each dispatched action.
type Listener func(State)

// Store owns the authoritative cart state for a running session.
type Store struct {
	mu        sync.Mutex
	state     State
	now       func() time.Time
	listeners map[int]Listener
	nextID    int
}

// NewStore creates an empty cart container. now defaults to time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		state:     State{Items: []LineItem{}},
		now:       now,
		listeners: make(map[int]Listener),
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies action and notifies listeners with the resulting state. Listeners run
// on the caller's goroutine, in subscription order, after the transition is committed.
// Actions the reducer rejects (e.g. over the stock ceiling) notify nobody.
func (s *Store) Dispatch(action Action) (State, bool) {
	s.mu.Lock()
	next, changed := apply(s.state, action, s.now())
	if !changed {
		s.mu.Unlock()
		return next, false
	}
	s.state = next
	listeners := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return next, true
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}
