// Package telemetry keeps the most recent pipeline executions in a
// fixed-capacity ring buffer for post-hoc tuning and feedback
// correlation. Oldest events are evicted first; feedback attachment by
// request id shares the same mutex as appends.
package telemetry

import (
	"sync"

	domtel "github.com/kailas-cloud/snapfind/internal/domain/telemetry"
)

// DefaultCapacity bounds the ring buffer when no capacity is configured.
const DefaultCapacity = 50

// Sink is the bounded in-memory event store.
type Sink struct {
	mu       sync.Mutex
	events   []domtel.Event
	start    int
	count    int
	capacity int
}

// NewSink creates a sink with the given capacity (DefaultCapacity if <= 0).
func NewSink(capacity int) *Sink {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Sink{
		events:   make([]domtel.Event, capacity),
		capacity: capacity,
	}
}

// Record appends an event, evicting the oldest when full.
func (s *Sink) Record(ev domtel.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := (s.start + s.count) % s.capacity
	s.events[idx] = ev
	if s.count < s.capacity {
		s.count++
	} else {
		s.start = (s.start + 1) % s.capacity
	}
}

// AddFeedback attaches feedback to the event with the given request id.
// Returns false when the event has already been evicted or never existed.
func (s *Sink) AddFeedback(requestID string, fb domtel.Feedback) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < s.count; i++ {
		idx := (s.start + i) % s.capacity
		if s.events[idx].RequestID == requestID {
			s.events[idx].Feedback = &fb
			return true
		}
	}
	return false
}

// Events returns copies of the buffered events, newest first.
func (s *Sink) Events() []domtel.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domtel.Event, 0, s.count)
	for i := s.count - 1; i >= 0; i-- {
		idx := (s.start + i) % s.capacity
		out = append(out, s.events[idx])
	}
	return out
}
