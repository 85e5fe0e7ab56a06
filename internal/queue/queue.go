package queue

import (
	"context"
	"sync/atomic"
)

// DefaultCapacity is the number of routed messages the lobby queue holds.
const DefaultCapacity = 20

// Mode selects what Send does when the queue is full.
type Mode uint8

const (
	// Blocking waits, without a deadline, until a slot frees.
	Blocking Mode = iota
	// NonBlocking returns false immediately and leaves the queue unchanged.
	NonBlocking
)

func (m Mode) String() string {
	switch m {
	case Blocking:
		return "blocking"
	case NonBlocking:
		return "non-blocking"
	default:
		return "unknown"
	}
}

// Queue is a bounded FIFO with any number of producers and a single consumer.
// The buffered channel provides the mutual exclusion between producers.
type Queue[T any] struct {
	ch      chan T
	dropped atomic.Uint64
}

// New returns a queue with a fixed capacity. capacity <= 0 selects DefaultCapacity.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue[T]{ch: make(chan T, capacity)}
}

// Send appends v at the tail. It reports false only when mode is NonBlocking
// and the queue is full; the value is then discarded and counted.
func (q *Queue[T]) Send(v T, mode Mode) bool {
	if mode == Blocking {
		q.ch <- v
		return true
	}
	select {
	case q.ch <- v:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Receive removes and returns the head, waiting until one is available.
// It returns ctx.Err() if ctx ends first.
func (q *Queue[T]) Receive(ctx context.Context) (T, error) {
	select {
	case v := <-q.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (q *Queue[T]) Len() int { return len(q.ch) }
func (q *Queue[T]) Cap() int { return cap(q.ch) }

// Dropped is the number of values discarded by NonBlocking sends.
func (q *Queue[T]) Dropped() uint64 { return q.dropped.Load() }
