package notifications

import (
	"time"

	"github.com/goliatone/go-nestsync/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NotificationType identifies what a notification is about.
type NotificationType string

const (
	TypeLowStock      NotificationType = "low_stock"
	TypeTrialEnding   NotificationType = "trial_ending"
	TypeTrialExpired  NotificationType = "trial_expired"
	TypePaymentFailed NotificationType = "payment_failed"
	TypeInvite        NotificationType = "invite"
	TypeSizeAdvisory  NotificationType = "size_advisory"
	TypeSystem        NotificationType = "system"
)

// Valid reports whether the notification type is known.
func (t NotificationType) Valid() bool {
	switch t {
	case TypeLowStock, TypeTrialEnding, TypeTrialExpired, TypePaymentFailed,
		TypeInvite, TypeSizeAdvisory, TypeSystem:
		return true
	}
	return false
}

// Notification delivery statuses.
const (
	StatusPending  = "pending"
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

// Digest modes.
const (
	DigestImmediate = "immediate"
	DigestDaily     = "daily"
)

// DefaultLowStockThresholdDays is the days-of-cover floor below which a
// low-stock notification fires.
const DefaultLowStockThresholdDays = 3

// MaxDispatchAttempts caps delivery retries per notification record.
const MaxDispatchAttempts = 3

// NotificationPreference holds one user's delivery settings within a family.
// One row per (user, family) pair.
type NotificationPreference struct {
	bun.BaseModel `bun:"table:notification_preferences,alias:np"`

	ID                    uuid.UUID        `bun:",pk,type:uuid" json:"id"`
	UserID                uuid.UUID        `bun:"user_id,notnull,type:uuid" json:"user_id"`
	FamilyID              uuid.UUID        `bun:"family_id,notnull,type:uuid" json:"family_id"`
	Channels              []domain.Channel `bun:"channels,type:jsonb,notnull" json:"channels"`
	QuietHoursStart       *string          `bun:"quiet_hours_start" json:"quiet_hours_start,omitempty"`
	QuietHoursEnd         *string          `bun:"quiet_hours_end" json:"quiet_hours_end,omitempty"`
	LowStockThresholdDays int              `bun:"low_stock_threshold_days,notnull,default:3" json:"low_stock_threshold_days"`
	SizeChangeAlerts      bool             `bun:"size_change_alerts,notnull,default:true" json:"size_change_alerts"`
	MarketingOptIn        bool             `bun:"marketing_opt_in,notnull,default:false" json:"marketing_opt_in"`
	Digest                string           `bun:"digest,notnull,default:'immediate'" json:"digest"`
	CreatedAt             time.Time        `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt             time.Time        `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// ChannelEnabled reports whether deliveries on the channel are wanted. The
// in-app channel is always on.
func (p *NotificationPreference) ChannelEnabled(ch domain.Channel) bool {
	if ch == domain.ChannelInApp {
		return true
	}
	if p == nil {
		return false
	}
	for _, enabled := range p.Channels {
		if enabled == ch {
			return true
		}
	}
	return false
}

// Notification is one queued delivery on one channel.
type Notification struct {
	bun.BaseModel `bun:"table:notifications,alias:n"`

	ID           uuid.UUID        `bun:",pk,type:uuid" json:"id"`
	UserID       uuid.UUID        `bun:"user_id,notnull,type:uuid" json:"user_id"`
	FamilyID     uuid.UUID        `bun:"family_id,notnull,type:uuid" json:"family_id"`
	Type         NotificationType `bun:"type,notnull" json:"type"`
	Channel      domain.Channel   `bun:"channel,notnull,default:'in_app'" json:"channel"`
	Title        string           `bun:"title,notnull" json:"title"`
	Body         string           `bun:"body" json:"body"`
	Data         map[string]any   `bun:"data,type:jsonb" json:"data,omitempty"`
	Status       string           `bun:"status,notnull,default:'pending'" json:"status"`
	ScheduledFor time.Time        `bun:"scheduled_for,notnull" json:"scheduled_for"`
	SentAt       *time.Time       `bun:"sent_at,nullzero" json:"sent_at,omitempty"`
	ReadAt       *time.Time       `bun:"read_at,nullzero" json:"read_at,omitempty"`
	Attempts     int              `bun:"attempts,notnull,default:0" json:"attempts"`
	LastError    string           `bun:"last_error" json:"last_error,omitempty"`
	CreatedAt    time.Time        `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time        `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Due reports whether the record is ready for dispatch at the given instant.
func (n *Notification) Due(now time.Time) bool {
	return n != nil && n.Status == StatusPending && !n.ScheduledFor.After(now)
}
