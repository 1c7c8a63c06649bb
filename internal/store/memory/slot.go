package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/MrSnakeDoc/skylog/internal/store"
)

// Slot keeps the snapshot in process memory. Nothing survives a restart;
// it backs SKYLOG_STORAGE=memory and the tests.
type Slot struct {
	mu       sync.RWMutex
	name     string
	data     []byte
	archived [][]byte

	// FailWrites makes Write return this error, for failure-path tests.
	FailWrites error
}

var (
	_ store.Slot     = (*Slot)(nil)
	_ store.Archiver = (*Slot)(nil)
)

func New(name string) *Slot {
	return &Slot{name: name}
}

func (s *Slot) Read(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data == nil {
		return nil, store.ErrSlotEmpty
	}
	return slices.Clone(s.data), nil
}

func (s *Slot) Write(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.data = slices.Clone(data)
	return nil
}

func (s *Slot) Archive(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.archived = append(s.archived, slices.Clone(data))
	return nil
}

// Archived returns the snapshots set aside so far.
func (s *Slot) Archived() [][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.archived)
}

func (s *Slot) Ping(context.Context) error { return nil }

func (s *Slot) Name() string { return "memory:" + s.name }
