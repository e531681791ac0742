package stream

import (
	"cmp"
	"slices"
)

// Buffer is a fixed capacity ring buffer. Once full, each Push evicts the oldest element.
// It does no locking; whoever owns it must make sure only one goroutine mutates it.
type Buffer[T any] struct {
	// items is the backing ring, allocated to capacity up front.
	items []T
	// head is the index of the oldest element.
	head int
	// length is how many slots of items are in use.
	length int
}

// NewBuffer creates a buffer holding at most capacity elements. A capacity below 1 is treated as 1.
func NewBuffer[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{
		items: make([]T, capacity),
	}
}

func (b *Buffer[T]) Len() int {
	return b.length
}

func (b *Buffer[T]) Cap() int {
	return len(b.items)
}

// Push appends item, evicting the oldest element if the buffer is full.
func (b *Buffer[T]) Push(item T) {
	if b.length < len(b.items) {
		b.items[(b.head+b.length)%len(b.items)] = item
		b.length++
		return
	}
	b.items[b.head] = item
	b.head = (b.head + 1) % len(b.items)
}

// Snapshot returns a copy of the contents in insertion order, oldest first.
func (b *Buffer[T]) Snapshot() []T {
	out := make([]T, b.length)
	for i := 0; i < b.length; i++ {
		out[i] = b.items[(b.head+i)%len(b.items)]
	}
	return out
}

// SortedBy returns a copy sorted ascending by key. Equal keys keep insertion order and the buffer itself is left alone.
func (b *Buffer[T]) SortedBy(key func(T) float64) []T {
	out := b.Snapshot()
	slices.SortStableFunc(out, func(a, c T) int {
		return cmp.Compare(key(a), key(c))
	})
	return out
}

func (b *Buffer[T]) Reset() {
	clear(b.items)
	b.head = 0
	b.length = 0
}
