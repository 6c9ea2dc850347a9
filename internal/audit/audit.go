package audit

import (
	"context"
	"sync"
	"time"
)

// Event captures a change applied by a service or the scheduler worker.
type Event struct {
	EntityType string
	EntityID   string
	Action     string
	ActorID    string
	OccurredAt time.Time
	Metadata   map[string]any
}

// Recorder persists audit events. ClearBefore supports retention pruning:
// consent and billing trails are kept for a configured window rather than
// wiped wholesale.
type Recorder interface {
	Record(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
	Clear(ctx context.Context) error
	ClearBefore(ctx context.Context, cutoff time.Time) error
}

// InMemoryRecorder accumulates audit events in-memory for tests.
type InMemoryRecorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

// NewInMemoryRecorder constructs an empty recorder.
func NewInMemoryRecorder() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Record stores the supplied event.
func (r *InMemoryRecorder) Record(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	copied := event
	if copied.Metadata != nil {
		metadata := make(map[string]any, len(copied.Metadata))
		for k, v := range copied.Metadata {
			metadata[k] = v
		}
		copied.Metadata = metadata
	}
	r.events = append(r.events, copied)
	return nil
}

// Events returns a snapshot of recorded audit entries.
func (r *InMemoryRecorder) Events() []Event {
	events, _ := r.List(context.Background())
	return events
}

// Fail configures the recorder to return the supplied error on subsequent Record calls.
func (r *InMemoryRecorder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// List returns the audit events recorded so far.
func (r *InMemoryRecorder) List(context.Context) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out, nil
}

// Clear removes all recorded events.
func (r *InMemoryRecorder) Clear(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	return nil
}

// ClearBefore removes events that occurred strictly before the cutoff.
func (r *InMemoryRecorder) ClearBefore(_ context.Context, cutoff time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.events[:0]
	for _, event := range r.events {
		if !event.OccurredAt.Before(cutoff) {
			kept = append(kept, event)
		}
	}
	r.events = kept
	return nil
}
