package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
)

// ErrFromAddressRequired is returned when the SES mailer is built without a
// verified sender address.
var ErrFromAddressRequired = errors.New("email: from address required")

// SESOption configures the SES mailer.
type SESOption func(*SESMailer)

// WithFromName sets the display name on the sender address.
func WithFromName(name string) SESOption {
	return func(m *SESMailer) {
		m.fromName = name
	}
}

// WithLogger attaches a logger used for delivery diagnostics.
func WithLogger(logger interfaces.Logger) SESOption {
	return func(m *SESMailer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// SESMailer delivers email through Amazon SES.
type SESMailer struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	logger    interfaces.Logger
}

// NewSESMailer loads AWS configuration for the region and builds a mailer
// sending from the given verified address.
func NewSESMailer(ctx context.Context, region, fromEmail string, opts ...SESOption) (*SESMailer, error) {
	if fromEmail == "" {
		return nil, ErrFromAddressRequired
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("email: load aws config: %w", err)
	}

	m := &SESMailer{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *SESMailer) Enabled() bool {
	return m != nil && m.client != nil
}

// Send delivers one message. HTML and text parts are both attached when
// present.
func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	if !m.Enabled() {
		return nil
	}
	if len(msg.To) == 0 {
		return nil
	}

	from := m.fromEmail
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)
	}

	body := &types.Body{}
	if msg.HTMLBody != "" {
		body.Html = &types.Content{
			Data:    aws.String(msg.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}
	if msg.TextBody != "" || msg.HTMLBody == "" {
		body.Text = &types.Content{
			Data:    aws.String(msg.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: msg.To,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: body,
			},
		},
	}

	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("email: send to %d recipients: %w", len(msg.To), err)
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	m.logger.Info("email sent", "subject", msg.Subject, "message_id", messageID)
	return nil
}
