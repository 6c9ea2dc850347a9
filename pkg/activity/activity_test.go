package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-nestsync/pkg/activity"
)

func TestEmitterStampsDefaults(t *testing.T) {
	hook := &activity.CaptureHook{}
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	emitter := activity.NewEmitter(activity.Hooks{hook}, activity.Config{
		Enabled: true,
		Channel: "nestsync",
		Clock:   func() time.Time { return now },
	})

	emitter.Emit(context.Background(), activity.Event{
		Verb:       "usage.logged",
		ObjectType: "usage_log",
	})

	if len(hook.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(hook.Events))
	}
	event := hook.Events[0]
	if event.Channel != "nestsync" {
		t.Fatalf("expected default channel, got %q", event.Channel)
	}
	if !event.OccurredAt.Equal(now) {
		t.Fatalf("expected clock timestamp, got %v", event.OccurredAt)
	}
}

func TestEmitterDropsWhenDisabled(t *testing.T) {
	hook := &activity.CaptureHook{}
	emitter := activity.NewEmitter(activity.Hooks{hook}, activity.Config{Enabled: false})

	emitter.Emit(context.Background(), activity.Event{Verb: "create"})

	if len(hook.Events) != 0 {
		t.Fatalf("expected no events, got %d", len(hook.Events))
	}
}

func TestEmitterDropsMissingVerb(t *testing.T) {
	hook := &activity.CaptureHook{}
	emitter := activity.NewEmitter(activity.Hooks{hook}, activity.Config{Enabled: true})

	emitter.Emit(context.Background(), activity.Event{ObjectType: "family"})

	if len(hook.Events) != 0 {
		t.Fatalf("expected no events, got %d", len(hook.Events))
	}
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *activity.Emitter
	emitter.Emit(context.Background(), activity.Event{Verb: "create"})
}
