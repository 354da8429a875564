// Package dedupe defines the interface for idempotency tracking.
package dedupe

import (
	"context"
	"sync"
)

// defaultMaxSize bounds the number of evaluation ids kept in memory.
const defaultMaxSize = 50_000

// Deduper records seen evaluation ids to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an id from the seen set, allowing it to be retried.
	// Used when a submission was marked as seen but failed downstream
	// (e.g. queue backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper implements Deduper with two id generations. New ids go
// into the current generation; when it fills up, the previous generation is
// dropped and the generations rotate. Lookups consult both, so an id stays
// visible for at least maxSize and at most 2*maxSize insertions.
// maxSize <= 0 disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	current map[string]struct{}
	prev    map[string]struct{}
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.current = make(map[string]struct{})
	d.prev = make(map[string]struct{})

	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.current[id]; ok {
		return true
	}
	if _, ok := d.prev[id]; ok {
		return true
	}

	if d.maxSize > 0 && len(d.current) >= d.maxSize {
		d.prev = d.current
		d.current = make(map[string]struct{})
	}
	d.current[id] = struct{}{}
	return false
}

// Unrecord removes an id from the seen set.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.current, id)
	delete(d.prev, id)
}

// Size returns the number of ids currently tracked.
func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return int64(len(d.current) + len(d.prev))
}
