// Package queue defines the contract for enqueuing and consuming
// evaluations awaiting scoring.
package queue

import (
	"context"
	"sync"

	"github.com/eqscore/eqs/internal/domain/model"
	"github.com/eqscore/eqs/pkg/metrics"
)

// defaultCapacity bounds the in-memory queue.
const defaultCapacity = 100_000

// Evaluation is the payload type flowing through the queue.
type Evaluation = model.EventEvaluation

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an evaluation to the queue.
	// Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, e Evaluation) bool

	// Dequeue returns a channel that receives evaluations as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Evaluation

	// Len returns the current number of queued evaluations.
	Len(ctx context.Context) int

	// Close shuts down the queue. No new evaluations can be enqueued and
	// the dequeue channel drains then closes.
	Close() error

	// IsClosed reports whether the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	evaluations chan Evaluation
	capacity    int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.evaluations = make(chan Evaluation, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)

	return q
}

// Enqueue adds an evaluation to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Evaluation) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return false
	}

	select {
	case q.evaluations <- e:
		metrics.RecordQueueEnqueue()
		q.publishGauges()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		return false
	default:
		// queue is full
		metrics.RecordQueueEnqueueError()
		return false
	}
}

// Dequeue returns a channel that receives evaluations as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Evaluation {
	out := make(chan Evaluation)
	go func() {
		defer close(out)
		for e := range q.evaluations {
			select {
			case out <- e:
				metrics.RecordQueueDequeue()
				q.publishGauges()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued evaluations.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.evaluations)
	metrics.UpdateQueueSize(size)
	return size
}

// Close shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.evaluations)
	q.closed = true

	return nil
}

// IsClosed reports whether the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) publishGauges() {
	size := len(q.evaluations)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
