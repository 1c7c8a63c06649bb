package domain

import (
	"sync"
	"time"
)

// IDGenerator hands out observation IDs derived from the creation time in
// Unix milliseconds. Two calls within the same millisecond (or a clock
// that steps backwards) get last+1 instead, so IDs never repeat.
type IDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns a fresh ID.
func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe raises the floor so that future IDs are greater than id.
// Called with the IDs of observations loaded from storage.
func (g *IDGenerator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id > g.last {
		g.last = id
	}
}
