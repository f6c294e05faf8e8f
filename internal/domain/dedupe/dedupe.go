// Package dedupe tracks in-flight snapshot jobs so the same scope and date
// is not queued twice while a run is pending.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/okian/tourboard/internal/domain/model"
)

// Deduper records claimed job keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key is already claimed and claims
	// it if not. Returns true if the key was already claimed.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord releases a claim, e.g. once the job finished or could not
	// be queued.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// JobKey builds the claim key for a snapshot of scopeKey on asOf.
func JobKey(scopeKey string, asOf time.Time) string {
	return scopeKey + "@" + model.FormatDay(asOf)
}

type claim struct {
	key string
	at  time.Time
}

// inMemoryDeduper keeps claims in insertion order. When maxSize is
// reached the oldest claim is evicted. Claims older than ttl are treated
// as released so a crashed job cannot block its key forever.
type inMemoryDeduper struct {
	mu      sync.Mutex
	claims  map[string]*list.Element
	order   *list.List
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		claims:  make(map[string]*list.Element),
		order:   list.New(),
		maxSize: 10_000,
		ttl:     time.Hour,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if el, ok := d.claims[key]; ok {
		if d.ttl <= 0 || now.Sub(el.Value.(claim).at) < d.ttl {
			return true
		}
		d.remove(el)
	}

	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.remove(d.order.Front())
	}
	d.claims[key] = d.order.PushBack(claim{key: key, at: now})
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.claims[key]; ok {
		d.remove(el)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}

// remove must be called with d.mu held.
func (d *inMemoryDeduper) remove(el *list.Element) {
	if el == nil {
		return
	}
	delete(d.claims, el.Value.(claim).key)
	d.order.Remove(el)
}
