package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	"github.com/nats-io/nats.go"
)

// ErrNotConnected is returned when publishing without a live NATS connection.
var ErrNotConnected = errors.New("events: nats connection is not established")

// Connect dials a NATS server. An empty URL falls back to the default.
func Connect(url string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	conn, err := nats.Connect(url, nats.Name("nestsync"))
	if err != nil {
		return nil, fmt.Errorf("events: connect nats: %w", err)
	}
	return conn, nil
}

// NATSOption configures the NATS publisher.
type NATSOption func(*NATSPublisher)

// WithLogger attaches a logger used for publish diagnostics.
func WithLogger(logger interfaces.Logger) NATSOption {
	return func(p *NATSPublisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NATSPublisher publishes integration events over a NATS connection.
type NATSPublisher struct {
	conn   *nats.Conn
	logger interfaces.Logger
}

// NewNATSPublisher wraps an established connection.
func NewNATSPublisher(conn *nats.Conn, opts ...NATSOption) *NATSPublisher {
	p := &NATSPublisher{
		conn:   conn,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish JSON encodes the payload and sends it to the subject.
func (p *NATSPublisher) Publish(_ context.Context, subject string, payload any) error {
	if p.conn == nil || !p.conn.IsConnected() {
		return ErrNotConnected
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: encode %s payload: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("events: publish %s: %w", subject, err)
	}
	p.logger.Debug("event published", "subject", subject)
	return nil
}

// Close drains the connection when one is held.
func (p *NATSPublisher) Close() {
	if p.conn != nil && p.conn.IsConnected() {
		p.conn.Close()
	}
}
