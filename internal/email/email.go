package email

import (
	"context"

	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
)

// Message is one outbound email.
type Message struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer delivers email. Enabled reports whether sends actually go out so
// callers can degrade gracefully.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Enabled() bool
}

// NoOpMailer drops every message. It stands in when no provider is
// configured.
type NoOpMailer struct {
	logger interfaces.Logger
}

// NewNoOpMailer returns a mailer that skips delivery.
func NewNoOpMailer(logger interfaces.Logger) *NoOpMailer {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &NoOpMailer{logger: logger}
}

func (m *NoOpMailer) Send(_ context.Context, msg Message) error {
	m.logger.Debug("email delivery skipped", "subject", msg.Subject, "recipients", len(msg.To))
	return nil
}

func (*NoOpMailer) Enabled() bool {
	return false
}
