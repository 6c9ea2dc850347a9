package notifications

import (
	"context"

	"github.com/goliatone/go-nestsync/internal/email"
	"github.com/goliatone/go-nestsync/internal/events"
	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
)

// Delivery is one rendered notification handed to a channel sender.
type Delivery struct {
	Record   *Notification
	HTMLBody string
}

// ChannelSender delivers one notification over a single channel.
type ChannelSender interface {
	Send(ctx context.Context, delivery Delivery) error
}

// EmailSender delivers notifications through the mailer. A disabled mailer
// degrades to the stored in-app record with a warning.
type EmailSender struct {
	mailer email.Mailer
	users  UserDirectory
	logger interfaces.Logger
}

// NewEmailSender builds the email channel sender.
func NewEmailSender(mailer email.Mailer, users UserDirectory, logger interfaces.Logger) *EmailSender {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &EmailSender{mailer: mailer, users: users, logger: logger}
}

func (s *EmailSender) Send(ctx context.Context, delivery Delivery) error {
	record := delivery.Record
	if s.mailer == nil || !s.mailer.Enabled() {
		s.logger.Warn("email channel disabled, notification stays in-app",
			"notification_id", record.ID.String(),
		)
		return nil
	}

	user, err := s.users.Get(ctx, record.UserID)
	if err != nil {
		return err
	}

	return s.mailer.Send(ctx, email.Message{
		To:       []string{user.Email},
		Subject:  record.Title,
		HTMLBody: delivery.HTMLBody,
		TextBody: record.Body,
	})
}

// PushSender hands notifications to the message bus for the mobile push
// workers. A missing bus degrades to the stored in-app record.
type PushSender struct {
	bus    events.Publisher
	logger interfaces.Logger
}

// NewPushSender builds the push channel sender.
func NewPushSender(bus events.Publisher, logger interfaces.Logger) *PushSender {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &PushSender{bus: bus, logger: logger}
}

func (s *PushSender) Send(ctx context.Context, delivery Delivery) error {
	record := delivery.Record
	if s.bus == nil {
		s.logger.Warn("push channel disabled, notification stays in-app",
			"notification_id", record.ID.String(),
		)
		return nil
	}

	payload := map[string]any{
		"notification_id": record.ID.String(),
		"user_id":         record.UserID.String(),
		"family_id":       record.FamilyID.String(),
		"type":            string(record.Type),
		"title":           record.Title,
		"body":            record.Body,
	}
	if len(record.Data) > 0 {
		payload["data"] = record.Data
	}
	return s.bus.Publish(ctx, events.SubjectNotificationPush, payload)
}
