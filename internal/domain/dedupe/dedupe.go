// Package dedupe tracks client-supplied event ids so retried submissions are
// acknowledged instead of appended twice.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen event ids for at-most-once signal intake.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets an id, allowing a retry after a failed append.
	Unrecord(ctx context.Context, id string)

	// Size returns the current number of tracked ids.
	Size() int
}

// defaultMaxSize bounds the cache when no option overrides it.
const defaultMaxSize = 50_000

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemory)

// WithMaxSize bounds the cache; the oldest ids are evicted first.
// Non-positive sizes keep the default.
func WithMaxSize(size int) Option {
	return func(d *inMemory) {
		if size > 0 {
			d.maxSize = size
		}
	}
}

// inMemory implements Deduper with a map plus FIFO eviction order.
type inMemory struct {
	mu      sync.Mutex
	seen    map[string]bool
	order   []string
	maxSize int
}

// New creates a bounded in-memory deduper.
func New(opts ...Option) Deduper {
	d := &inMemory{
		seen:    make(map[string]bool),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemory) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.seen[id] {
		return true
	}
	if len(d.order) >= d.maxSize {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}
	d.seen[id] = true
	d.order = append(d.order, id)
	return false
}

func (d *inMemory) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.seen[id] {
		return
	}
	delete(d.seen, id)
	for i, v := range d.order {
		if v == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *inMemory) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
