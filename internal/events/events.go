package events

import (
	"context"
	"sync"
)

// Subjects for integration events published to the message bus.
const (
	SubjectUsageLogged      = "nestsync.usage.logged"
	SubjectNotificationPush = "nestsync.notifications.push"
	SubjectBillingWebhook   = "nestsync.billing.webhook"
)

// Publisher broadcasts integration events. Payloads are JSON encoded before
// they hit the wire.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// NoOpPublisher drops every event. It stands in when no message bus is
// configured.
type NoOpPublisher struct{}

// NewNoOpPublisher returns a publisher that discards events.
func NewNoOpPublisher() *NoOpPublisher {
	return &NoOpPublisher{}
}

func (*NoOpPublisher) Publish(context.Context, string, any) error {
	return nil
}

// Message is one captured integration event.
type Message struct {
	Subject string
	Payload any
}

// CapturePublisher records events in memory for tests.
type CapturePublisher struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

// NewCapturePublisher returns an empty capture publisher.
func NewCapturePublisher() *CapturePublisher {
	return &CapturePublisher{}
}

func (p *CapturePublisher) Publish(_ context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, Message{Subject: subject, Payload: payload})
	return nil
}

// Messages returns a copy of the captured events.
func (p *CapturePublisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// Fail makes subsequent publishes return err.
func (p *CapturePublisher) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}
