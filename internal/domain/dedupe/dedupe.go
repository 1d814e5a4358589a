// Package dedupe tracks stress sample ids so resubmitted samples are ignored.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

// DefaultMaxSize bounds the number of remembered ids.
const DefaultMaxSize = 10_000

// Deduper remembers recently recorded sample ids.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded and records it
	// if not. The check and the insert are atomic.
	SeenAndRecord(ctx context.Context, id string) bool
	// Unrecord forgets id, used when persisting the sample failed.
	Unrecord(ctx context.Context, id string)
	// Seed records ids already present in the stress log.
	Seed(ctx context.Context, ids ...string)
	Size() int
}

// fifo evicts the oldest id once maxSize is reached. maxSize <= 0 disables
// eviction.
type fifo struct {
	mu      sync.Mutex
	order   *list.List
	seen    map[string]*list.Element
	maxSize int
}

// New returns an in-memory Deduper.
func New(opts ...Option) Deduper {
	d := &fifo{
		order:   list.New(),
		seen:    make(map[string]*list.Element),
		maxSize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *fifo) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return true
	}
	d.add(id)
	return false
}

func (d *fifo) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.seen[id]; ok {
		d.order.Remove(el)
		delete(d.seen, id)
	}
}

func (d *fifo) Seed(_ context.Context, ids ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := d.seen[id]; !ok {
			d.add(id)
		}
	}
}

func (d *fifo) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

func (d *fifo) add(id string) {
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.seen, oldest.Value.(string))
	}
	d.seen[id] = d.order.PushBack(id)
}
