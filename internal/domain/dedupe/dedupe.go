// Package dedupe remembers draw request keys so a retried request replays
// the winners it already produced instead of drawing again.
package dedupe

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/okian/raffle/internal/domain/model"
)

// Status is the outcome of Begin.
type Status int

const (
	// Fresh means the key was unknown and is now reserved by the caller.
	Fresh Status = iota
	// Pending means another request holding the key has not finished.
	Pending
	// Done means the key already completed; the recorded winners are returned.
	Done
)

// Deduper tracks draw request keys.
type Deduper interface {
	// Begin atomically looks up key and reserves it when unknown.
	Begin(ctx context.Context, key string) (Status, []model.Winner)

	// Complete records the winners for a reserved key.
	Complete(ctx context.Context, key string, winners []model.Winner)

	// Abandon releases a reserved key whose draw failed so it can be retried.
	Abandon(ctx context.Context, key string)

	Size() int64
}

// entry is one remembered key. Entries form a list from newest to oldest.
type entry struct {
	key     string
	done    bool
	winners []model.Winner
	next    *entry
}

// inMemoryDeduper keeps at most maxSize completed keys, evicting the oldest.
// Pending keys are never evicted.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*entry
	head    *entry // most recently added
	maxSize int    // 0 or negative = unbounded
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 1024,
		seen:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) Begin(_ context.Context, key string) (Status, []model.Winner) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.seen[key]; ok {
		if !e.done {
			return Pending, nil
		}
		return Done, slices.Clone(e.winners)
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	e := &entry{key: key, next: d.head}
	d.head = e
	d.seen[key] = e
	d.size.Add(1)
	return Fresh, nil
}

func (d *inMemoryDeduper) Complete(_ context.Context, key string, winners []model.Winner) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.seen[key]; ok {
		e.done = true
		e.winners = slices.Clone(winners)
	}
}

func (d *inMemoryDeduper) Abandon(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.seen[key]
	if !ok || e.done {
		return
	}
	d.unlink(e)
}

// unlink removes e from the list and the map. Must be called with d.mu held.
func (d *inMemoryDeduper) unlink(e *entry) {
	delete(d.seen, e.key)
	d.size.Add(-1)
	if d.head == e {
		d.head = e.next
		return
	}
	for cur := d.head; cur != nil; cur = cur.next {
		if cur.next == e {
			cur.next = e.next
			return
		}
	}
}

// evictOldest drops the oldest completed entry. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	var oldest *entry
	for cur := d.head; cur != nil; cur = cur.next {
		if cur.done {
			oldest = cur
		}
	}
	if oldest != nil {
		d.unlink(oldest)
	}
}

// Size returns the number of remembered keys, pending ones included.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
