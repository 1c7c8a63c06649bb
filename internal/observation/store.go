package observation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MrSnakeDoc/skylog/internal/domain"
	"github.com/MrSnakeDoc/skylog/internal/logger"
	"github.com/MrSnakeDoc/skylog/internal/store"
)

// Metrics receives store events. All methods must be cheap; they run
// under the store lock.
type Metrics interface {
	ObservationAdded(category domain.Category)
	ValidationFailed(code string)
	SnapshotWritten(bytes int, err error)
	SnapshotDecodeFailed()
	ObservationCount(n int)
}

// Store owns the ordered sequence of observations and is the only writer
// of its durable slot. Build one per process and hand it to whoever needs
// it.
//
// Every mutation is validate -> append -> persist under one lock, so no
// caller can observe the sequence between the append and the write.
type Store struct {
	mu      sync.Mutex
	slot    store.Slot
	seq     []domain.Observation
	ids     *domain.IDGenerator
	log     logger.Logger
	metrics Metrics
}

type Option func(*Store)

// WithLogger sets the logger (default: discard).
func WithLogger(l logger.Logger) Option { return func(s *Store) { s.log = l } }

// WithMetrics attaches a metrics sink.
func WithMetrics(m Metrics) Option { return func(s *Store) { s.metrics = m } }

// WithClock replaces time.Now for ID generation.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.ids = domain.NewIDGenerator(now) }
}

// New creates an empty store bound to slot. Call Load to pull the
// persisted snapshot in.
func New(slot store.Slot, opts ...Option) *Store {
	s := &Store{
		slot:    slot,
		ids:     domain.NewIDGenerator(time.Now),
		log:     logger.Nop(),
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory sequence with the slot's snapshot and
// returns a copy of it.
//
// An absent slot yields an empty sequence. A malformed snapshot is
// archived (when the slot supports it), the sequence falls back to empty,
// and a *DecodeError is returned alongside the empty result. Any other
// read failure leaves the store untouched.
func (s *Store) Load(ctx context.Context) ([]domain.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.slot.Read(ctx)
	if errors.Is(err, store.ErrSlotEmpty) {
		s.seq = nil
		s.metrics.ObservationCount(0)
		s.log.Info("no snapshot found, starting with an empty log",
			logger.String("slot", s.slot.Name()))
		return []domain.Observation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	seq, decodeErr := decodeSnapshot(data)
	if decodeErr != nil {
		return []domain.Observation{}, s.recoverFromDecode(ctx, data, decodeErr)
	}

	for _, o := range seq {
		s.ids.Observe(o.ID)
	}
	s.seq = seq
	s.metrics.ObservationCount(len(seq))
	s.log.Info("loaded observations",
		logger.String("slot", s.slot.Name()),
		logger.Int("count", len(seq)))

	return slices.Clone(seq), nil
}

func (s *Store) recoverFromDecode(ctx context.Context, data []byte, cause error) error {
	s.metrics.SnapshotDecodeFailed()
	s.seq = nil
	s.metrics.ObservationCount(0)

	derr := &DecodeError{Slot: s.slot.Name(), Err: cause}
	if a, ok := s.slot.(store.Archiver); ok {
		if err := a.Archive(ctx, data); err != nil {
			s.log.Error("failed to archive undecodable snapshot",
				logger.String("slot", s.slot.Name()),
				logger.Error(err))
		} else {
			derr.Archived = true
		}
	}

	s.log.Warn("snapshot could not be decoded, starting with an empty log",
		logger.String("slot", s.slot.Name()),
		logger.Int("bytes", len(data)),
		logger.Bool("archived", derr.Archived),
		logger.Error(cause))
	return derr
}

// Add validates c, appends the resulting observation and persists the
// snapshot. Validation errors are *domain.ValidationError and change
// nothing. If persisting fails the append is undone and a *PersistError
// is returned.
func (s *Store) Add(ctx context.Context, c domain.Candidate) (domain.Observation, error) {
	obs, err := c.Validate()
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			s.metrics.ValidationFailed(verr.Code)
		}
		return domain.Observation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	obs.ID = s.ids.Next()
	prev := s.seq
	s.seq = append(slices.Clip(prev), obs)

	if err := s.persistLocked(ctx); err != nil {
		s.seq = prev
		return domain.Observation{}, &PersistError{Err: err}
	}

	s.metrics.ObservationAdded(obs.Category)
	s.metrics.ObservationCount(len(s.seq))
	s.log.Info("observation added",
		logger.Int64("id", obs.ID),
		logger.String("category", string(obs.Category)),
		logger.String("date", obs.Date),
		logger.Int("total", len(s.seq)))

	return obs, nil
}

// Persist writes the full current sequence to the slot.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := encodeSnapshot(s.seq)
	if err != nil {
		s.metrics.SnapshotWritten(0, err)
		return err
	}
	err = s.slot.Write(ctx, data)
	s.metrics.SnapshotWritten(len(data), err)
	if err != nil {
		s.log.Error("failed to write snapshot",
			logger.String("slot", s.slot.Name()),
			logger.Error(err))
		return err
	}
	s.log.Debug("snapshot written",
		logger.String("slot", s.slot.Name()),
		logger.Int("bytes", len(data)))
	return nil
}

// Observations returns a copy of the sequence in insertion order.
func (s *Store) Observations() []domain.Observation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.seq)
}

// Filter returns the observations passing f, in insertion order.
func (s *Store) Filter(f domain.CategoryFilter) []domain.Observation {
	out := slices.Collect(domain.FilterByCategory(s.Observations(), f))
	if out == nil {
		out = []domain.Observation{}
	}
	return out
}

// Len returns the number of observations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.seq)
}

// Slot exposes the backing slot, for health checks.
func (s *Store) Slot() store.Slot { return s.slot }

type nopMetrics struct{}

func (nopMetrics) ObservationAdded(domain.Category) {}
func (nopMetrics) ValidationFailed(string)          {}
func (nopMetrics) SnapshotWritten(int, error)       {}
func (nopMetrics) SnapshotDecodeFailed()            {}
func (nopMetrics) ObservationCount(int)             {}
