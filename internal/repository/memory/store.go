// Package memory provides the in-memory store behind repository adapters.
package memory

import (
	"container/list"
	"context"
	"errors"
	"sync"
)

var (
	// ErrNotFound is returned when the requested key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned by Insert when the key is already taken.
	ErrExists = errors.New("already exists")
)

// Store is a thread-safe map that remembers insertion order. A Store with a
// capacity evicts its oldest entries once full, which makes it usable as a
// read-through cache in front of a database.
type Store[V any] struct {
	mu       sync.RWMutex
	key      func(V) string
	items    map[string]*list.Element
	order    *list.List // of V, oldest first
	capacity int
}

// New creates an unbounded Store keyed by key(v).
func New[V any](key func(V) string) *Store[V] {
	return NewBounded(key, 0)
}

// NewBounded creates a Store holding at most capacity entries. Zero or a
// negative capacity means unbounded.
func NewBounded[V any](key func(V) string, capacity int) *Store[V] {
	return &Store[V]{
		key:      key,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
	}
}

// Insert adds v, or returns ErrExists if its key is taken.
func (s *Store[V]) Insert(_ context.Context, v V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(v)
	if _, ok := s.items[k]; ok {
		return ErrExists
	}
	s.push(k, v)
	return nil
}

// Set inserts v or replaces the entry with the same key in place.
func (s *Store[V]) Set(_ context.Context, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(v)
	if el, ok := s.items[k]; ok {
		el.Value = v
		return
	}
	s.push(k, v)
}

func (s *Store[V]) push(k string, v V) {
	s.items[k] = s.order.PushBack(v)
	for s.capacity > 0 && s.order.Len() > s.capacity {
		oldest := s.order.Front()
		delete(s.items, s.key(oldest.Value.(V)))
		s.order.Remove(oldest)
	}
}

// Get returns the value for key, or ErrNotFound.
func (s *Store[V]) Get(_ context.Context, key string) (V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.items[key]
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	return el.Value.(V), nil
}

// Delete removes the value for key, or returns ErrNotFound.
func (s *Store[V]) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.items[key]
	if !ok {
		return ErrNotFound
	}
	delete(s.items, key)
	s.order.Remove(el)
	return nil
}

// DeleteFunc removes every value matching pred and returns how many went.
func (s *Store[V]) DeleteFunc(_ context.Context, pred func(V) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for el := s.order.Front(); el != nil; {
		next := el.Next()
		if v := el.Value.(V); pred(v) {
			delete(s.items, s.key(v))
			s.order.Remove(el)
			n++
		}
		el = next
	}
	return n
}

// All returns the stored values, oldest first.
func (s *Store[V]) All(_ context.Context) []V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]V, 0, s.order.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(V))
	}
	return out
}

// Len returns the number of stored values.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Len()
}
