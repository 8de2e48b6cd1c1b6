// Package querystate holds the live query of one search surface and keeps a
// durable copy of it in a Storage.
package querystate

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	apperrors "roster-search/internal/common/errors"
	"roster-search/internal/common/logger"
	"roster-search/internal/common/metrics"
	"roster-search/internal/models"
	"roster-search/internal/search/hierarchy"
)

const defaultWriteTimeout = 3 * time.Second

// Store owns the live QueryState of one namespace. The live value is the
// source of truth; the persisted copy is read once by Hydrate and written
// after changes. Deferred writes wait until Hydrate has restored the
// snapshot, so an early change never overwrites it.
type Store struct {
	namespace string
	defaults  models.QueryState
	storage   Storage
	scheduler Scheduler
	hierarchy *hierarchy.Hierarchy
	log       logger.Logger

	writeTimeout time.Duration

	mu         sync.Mutex
	value      models.QueryState
	hydrated   bool
	ready      bool
	pending    bool
	generation uint64

	// serializes storage writes so a slower write never lands after a newer one
	writeMu sync.Mutex
}

type Option func(*Store)

func WithLogger(log logger.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithScheduler replaces the default zero-delay timer scheduler.
func WithScheduler(sch Scheduler) Option {
	return func(s *Store) { s.scheduler = sch }
}

// WithHierarchy enables location pruning during Hydrate.
func WithHierarchy(h *hierarchy.Hierarchy) Option {
	return func(s *Store) { s.hierarchy = h }
}

// WithWriteTimeout bounds deferred writes, which run without a caller
// context.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) { s.writeTimeout = d }
}

// New returns a Store whose live value is defaults. Nothing is read from
// storage until Hydrate.
func New(namespace string, defaults models.QueryState, storage Storage, opts ...Option) *Store {
	s := &Store{
		namespace:    namespace,
		defaults:     defaults,
		storage:      storage,
		scheduler:    DelayScheduler(0),
		log:          logger.NewNoOpLogger(),
		writeTimeout: defaultWriteTimeout,
		value:        defaults,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(map[string]interface{}{"namespace": namespace})
	return s
}

func (s *Store) Namespace() string {
	return s.namespace
}

// Value returns a copy of the live value.
func (s *Store) Value() models.QueryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Hydrate restores the persisted snapshot over the defaults. It never fails:
// a missing key leaves the defaults, and unreadable data falls back field by
// field. Only the first call reads storage.
func (s *Store) Hydrate(ctx context.Context) models.QueryState {
	s.mu.Lock()
	if s.hydrated {
		v := s.value
		s.mu.Unlock()
		return v
	}
	s.hydrated = true
	s.mu.Unlock()

	restored := s.defaults
	snapshot, ok, err := s.storage.Get(ctx, s.namespace)
	switch {
	case err != nil:
		s.log.Warn("failed to read persisted search state", map[string]interface{}{
			"error": err,
		})
	case ok:
		var problems []fieldError
		restored, problems = merge(s.defaults, snapshot, s.hierarchy)
		for _, p := range problems {
			stdErr := apperrors.NewMalformedPersistedStateError(s.namespace, p.field, p.err)
			s.log.Warn("persisted search state field replaced by default", map[string]interface{}{
				"code":  stdErr.Code,
				"field": p.field,
				"error": p.err,
			})
			metrics.StateRestoreFallbacks.WithLabelValues(s.namespace, p.field).Inc()
		}
	}

	s.mu.Lock()
	s.value = restored
	s.ready = true
	v := s.value
	if s.pending {
		gen := s.generation
		s.scheduler.Schedule(func() { s.runPending(gen) })
	}
	s.mu.Unlock()

	s.log.Debug("search state hydrated", map[string]interface{}{"restored": ok})
	return v
}

// Update merges c into the live value and schedules a deferred write.
// Several updates before the write runs produce a single write of the
// latest value. Changes made before Hydrate are replaced by the restored
// snapshot, which is then written.
func (s *Store) Update(c Changes) models.QueryState {
	s.mu.Lock()
	c.apply(&s.value)
	v := s.value
	if !s.pending {
		s.pending = true
		gen := s.generation
		s.scheduler.Schedule(func() { s.runPending(gen) })
	}
	s.mu.Unlock()
	return v
}

// SetPage moves the cursor without touching any filter.
func (s *Store) SetPage(page int) models.QueryState {
	return s.Update(Changes{CurrentPage: &page})
}

// Reset restores the defaults and persists them immediately, discarding any
// pending deferred write. It writes even before Hydrate.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.value = s.defaults
	s.pending = false
	s.generation++
	s.mu.Unlock()

	return s.persist(ctx)
}

// Flush performs a pending deferred write now. It is a no-op when nothing is
// pending or Hydrate has not finished; the write stays pending.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	if !s.pending || !s.ready {
		s.mu.Unlock()
		return nil
	}
	s.pending = false
	s.generation++
	s.mu.Unlock()

	return s.persist(ctx)
}

func (s *Store) runPending(gen uint64) {
	s.mu.Lock()
	if !s.pending || gen != s.generation || !s.ready {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.generation++
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	_ = s.persist(ctx)
}

// persist writes the live value as it is when the write starts.
func (s *Store) persist(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	v := s.Value()
	data, err := json.Marshal(v)
	if err != nil {
		return s.persistFailed(err)
	}
	if err := s.storage.Set(ctx, s.namespace, string(data)); err != nil {
		return s.persistFailed(err)
	}
	metrics.StateWrites.WithLabelValues(s.namespace, "ok").Inc()
	return nil
}

func (s *Store) persistFailed(err error) error {
	stdErr := apperrors.NewStatePersistFailedError(s.namespace, err)
	s.log.Error("failed to persist search state", map[string]interface{}{
		"code":  stdErr.Code,
		"error": err,
	})
	metrics.StateWrites.WithLabelValues(s.namespace, "error").Inc()
	return stdErr
}
