package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
)

type sweepTestCommand struct {
	Scope string
}

func (sweepTestCommand) Type() string { return "nestsync.test.sweep" }

func (m sweepTestCommand) Validate() error {
	if m.Scope == "" {
		return errors.New("scope is required")
	}
	return nil
}

func TestDispatcherRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	var attempts int
	handler := NewHandler(func(ctx context.Context, _ sweepTestCommand) error {
		attempts++
		if attempts == 1 {
			return errors.New("transient failure")
		}
		return nil
	}, WithTimeout[sweepTestCommand](time.Second))

	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(1))
	t.Cleanup(sub.Unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), sweepTestCommand{Scope: "family"}); err != nil {
		t.Fatalf("dispatch: expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts (initial + retry), got %d", attempts)
	}
}

func TestDispatcherRetryExhaustionPropagatesError(t *testing.T) {
	t.Parallel()

	var attempts int
	handler := NewHandler(func(ctx context.Context, _ sweepTestCommand) error {
		attempts++
		return errors.New("permanent failure")
	}, WithTimeout[sweepTestCommand](time.Second))

	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(2))
	t.Cleanup(sub.Unsubscribe)

	err := dispatcher.Dispatch(context.Background(), sweepTestCommand{Scope: "child"})
	if err == nil {
		t.Fatal("expected dispatcher to return error after exhausting retries")
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts (initial + 2 retries), got %d", attempts)
	}
}

func TestDispatcherNeverExecutesInvalidMessages(t *testing.T) {
	t.Parallel()

	var execCalls int
	handler := NewHandler(func(ctx context.Context, _ sweepTestCommand) error {
		execCalls++
		return nil
	}, WithTimeout[sweepTestCommand](time.Second))

	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(2))
	t.Cleanup(sub.Unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), sweepTestCommand{}); err == nil {
		t.Fatal("expected validation error to surface through dispatch")
	}
	if execCalls != 0 {
		t.Fatalf("expected validation to short-circuit execution, got %d calls", execCalls)
	}
}
