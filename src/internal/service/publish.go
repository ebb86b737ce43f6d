package service

import (
	"sync"

	"github.com/maksimkurb/keen-ipmon/src/internal/log"
)

// publishSlot publishes values on its own goroutine, keeping at most one
// value waiting behind the one being published. A newer value replaces a
// waiting one, so a slow consumer only ever sees the latest state.
type publishSlot[T any] struct {
	name    string
	publish func(T) error
	done    func(generation uint64, err error)

	// inFlight is the generation of the latest enqueued value that has not
	// been acknowledged yet. Owned by the engine goroutine.
	inFlight uint64

	mu      sync.Mutex
	pending *slotJob[T]
	running bool
	closed  bool
}

type slotJob[T any] struct {
	generation uint64
	value      T
}

func newPublishSlot[T any](name string, publish func(T) error, done func(uint64, error)) *publishSlot[T] {
	return &publishSlot[T]{name: name, publish: publish, done: done}
}

// Enqueue schedules value for publication on behalf of a pass.
func (s *publishSlot[T]) Enqueue(generation uint64, value T) {
	s.inFlight = generation

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.pending != nil {
		log.Debugf("Replacing queued %s publication from pass %d", s.name, s.pending.generation)
	}
	s.pending = &slotJob[T]{generation: generation, value: value}
	if !s.running {
		s.running = true
		go s.drain()
	}
}

// Busy reports whether an enqueued value is still unacknowledged.
func (s *publishSlot[T]) Busy() bool {
	return s.inFlight != 0
}

// Acknowledge consumes the acknowledgment of a publication. Only the
// latest enqueued generation counts; older ones are stale.
func (s *publishSlot[T]) Acknowledge(generation uint64) bool {
	if generation != s.inFlight {
		return false
	}
	s.inFlight = 0
	return true
}

// Close drops any waiting value. A publication in progress completes.
func (s *publishSlot[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pending = nil
}

func (s *publishSlot[T]) drain() {
	for {
		s.mu.Lock()
		job := s.pending
		s.pending = nil
		if job == nil {
			s.running = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		err := s.publish(job.value)
		if err != nil {
			log.Warnf("Failed to publish %s configuration: %v", s.name, err)
		}
		s.done(job.generation, err)
	}
}
