// Package activity provides a lightweight event emitter used by feature
// services to publish audit-friendly activity entries. Hooks fan events out
// to sinks (go-users activity log, tests) and are best-effort: a failing
// hook never blocks the mutation that produced the event.
package activity

import (
	"context"
	"time"
)

// Event describes one activity entry. ActorID is who performed the action,
// UserID who it affects, TenantID the owning family.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// Hook receives emitted events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// Hooks is an ordered collection of hooks.
type Hooks []Hook

// Config controls emitter behavior. Channel is stamped onto events that do
// not carry their own.
type Config struct {
	Enabled bool
	Channel string
	Clock   func() time.Time
}

// Emitter dispatches events to the configured hooks.
type Emitter struct {
	hooks  Hooks
	config Config
	now    func() time.Time
}

// NewEmitter constructs an emitter. A nil or disabled emitter drops events.
func NewEmitter(hooks Hooks, config Config) *Emitter {
	now := config.Clock
	if now == nil {
		now = time.Now
	}
	return &Emitter{
		hooks:  hooks,
		config: config,
		now:    now,
	}
}

// Enabled reports whether events will be dispatched.
func (e *Emitter) Enabled() bool {
	return e != nil && e.config.Enabled
}

// Emit stamps defaults and notifies every hook. Events without a verb are
// dropped. Hook failures are swallowed so emission stays off the hot path's
// error flow.
func (e *Emitter) Emit(ctx context.Context, event Event) {
	if !e.Enabled() || event.Verb == "" {
		return
	}
	if event.Channel == "" {
		event.Channel = e.config.Channel
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now()
	}
	for _, hook := range e.hooks {
		if hook == nil {
			continue
		}
		_ = hook.Notify(ctx, event)
	}
}

// CaptureHook records events in memory for assertions.
type CaptureHook struct {
	Events []Event
}

// Notify appends the event to the captured list.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.Events = append(h.Events, event)
	return nil
}
