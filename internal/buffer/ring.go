// Package buffer provides a bounded ring used for per-room chat history.
package buffer

import (
	"sync"
)

// Ring is a thread-safe circular buffer that keeps the most recent items
// up to a fixed capacity. When the ring is full, the oldest item is
// discarded to make room for the new one.
//
// Rooms use it to replay recent chat to participants when they join.
type Ring[T any] struct {
	items    []T
	start    int
	capacity int
	mu       sync.RWMutex
}

// NewRing creates a Ring with the specified capacity.
// The capacity must be greater than 0; if not, it defaults to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Push appends items, discarding the oldest ones once capacity is reached.
func (r *Ring[T]) Push(items ...T) {
	if len(items) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// only the tail of an oversized batch can survive
	if len(items) >= r.capacity {
		r.items = append(r.items[:0], items[len(items)-r.capacity:]...)
		r.start = 0
		return
	}

	for _, item := range items {
		if len(r.items) < r.capacity {
			r.items = append(r.items, item)
			continue
		}
		r.items[r.start] = item
		r.start = (r.start + 1) % r.capacity
	}
}

// Items returns a copy of the stored items, oldest first.
// The returned slice is safe to use without holding the lock.
func (r *Ring[T]) Items() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.items) == 0 {
		return nil
	}

	result := make([]T, 0, len(r.items))
	result = append(result, r.items[r.start:]...)
	result = append(result, r.items[:r.start]...)
	return result
}

// Clear removes all items.
func (r *Ring[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.items)
	r.items = r.items[:0]
	r.start = 0
}

// Len returns the current number of items.
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

// Cap returns the capacity of the ring.
func (r *Ring[T]) Cap() int {
	return r.capacity
}
