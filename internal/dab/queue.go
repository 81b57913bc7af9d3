package dab

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Pop once the producer closed the queue and
// every buffered element was consumed.
var ErrQueueClosed = errors.New("queue closed")

// Queue is a bounded single-producer/single-consumer queue. Push blocks
// while the queue is full and Pop blocks while it is empty; both give up
// when the context is cancelled. Only the producer may call Close.
type Queue[T any] struct {
	ch        chan T
	closeOnce sync.Once
}

// NewQueue creates a queue holding at most size elements.
func NewQueue[T any](size int) *Queue[T] {
	if size < 1 {
		size = 1
	}
	return &Queue[T]{ch: make(chan T, size)}
}

// Push appends v, waiting for room.
func (q *Queue[T]) Push(ctx context.Context, v T) error {
	select {
	case q.ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop removes the oldest element, waiting for one to arrive.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	var zero T
	select {
	case v, ok := <-q.ch:
		if !ok {
			return zero, ErrQueueClosed
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close marks the end of the stream. Safe to call more than once.
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() { close(q.ch) })
}

// Len reports the number of buffered elements.
func (q *Queue[T]) Len() int { return len(q.ch) }

// Cap reports the queue bound.
func (q *Queue[T]) Cap() int { return cap(q.ch) }

// SampleQueue joins the sample source and the demodulator.
type SampleQueue = Queue[Sample]

// SymbolQueue joins the demodulator and the ensemble decoder.
type SymbolQueue = Queue[SymbolBlock]
