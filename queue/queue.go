package queue

import "sync"

// Queue is a goroutine-safe generic FIFO queue.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	ready chan struct{}
}

// New creates and returns a new Queue instance.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items: []T{},
		ready: make(chan struct{}, 1),
	}
}

// Enqueue adds an element to the end of the queue and wakes one waiter.
func (q *Queue[T]) Enqueue(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.signal()
}

// Dequeue removes and returns the front element of the queue.
// The boolean indicates whether an element was dequeued (false if the queue was empty).
func (q *Queue[T]) Dequeue() (T, bool) {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		var zero T
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	more := len(q.items) > 0
	q.mu.Unlock()

	// Pass the wakeup on so another waiter picks up the rest.
	if more {
		q.signal()
	}
	return item, true
}

// Len returns the number of elements in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Ready receives a value after an Enqueue. Wakeups coalesce, so a receiver
// should Dequeue until the queue reports empty.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.ready
}

func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
