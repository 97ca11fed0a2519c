// Package store provides a small single-writer state container.
//
// A Value holds one piece of shared state. Reads return the current value,
// writes replace it under a lock, and every change is fanned out to
// subscribers without blocking the writer. The running set, the history log,
// pending notifications and the show state are all built on it.
package store

import "sync"

// defaultSubscriberBuffer is used when Subscribe is called with buf <= 0.
const defaultSubscriberBuffer = 16

// Value is a lock-guarded container for a value of type T.
//
// Values of reference types (slices, maps) must be treated as immutable once
// stored: Update functions should build a new value rather than modify the
// one they receive, because readers and subscribers share it.
type Value[T any] struct {
	mu        sync.RWMutex
	v         T
	subs      map[int]chan T
	nextSubID int
}

// New creates a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		v:    initial,
		subs: make(map[int]chan T),
	}
}

// Get returns the current value.
func (s *Value[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v
}

// Set replaces the current value and notifies subscribers.
func (s *Value[T]) Set(v T) {
	s.mu.Lock()
	s.v = v
	s.publishLocked(v)
	s.mu.Unlock()
}

// Update applies fn to the current value and stores the result.
// The read, compute and write happen under one lock, so concurrent
// updates never lose each other's changes. Returns the stored value.
func (s *Value[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = fn(s.v)
	s.publishLocked(s.v)
	return s.v
}

// Subscribe returns a channel receiving every value stored after the call,
// and a cancel function that closes it. Slow subscribers miss updates
// rather than blocking writers.
func (s *Value[T]) Subscribe(buf int) (<-chan T, func()) {
	if buf <= 0 {
		buf = defaultSubscriberBuffer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan T, buf)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

// SubscriberCount returns the number of active subscriptions.
func (s *Value[T]) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *Value[T]) publishLocked(v T) {
	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
		}
	}
}
