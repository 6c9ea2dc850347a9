package users

import (
	"time"

	"github.com/goliatone/go-nestsync/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConsentType identifies a PIPEDA consent category tracked in the ledger.
type ConsentType string

const (
	ConsentPrivacyPolicy   ConsentType = "privacy_policy"
	ConsentTermsOfService  ConsentType = "terms_of_service"
	ConsentMarketingEmails ConsentType = "marketing_emails"
	ConsentAnalytics       ConsentType = "analytics"
	ConsentChildData       ConsentType = "child_data"
)

var consentTypes = []ConsentType{
	ConsentPrivacyPolicy,
	ConsentTermsOfService,
	ConsentMarketingEmails,
	ConsentAnalytics,
	ConsentChildData,
}

// ConsentTypes returns the known consent categories in declaration order.
func ConsentTypes() []ConsentType {
	out := make([]ConsentType, len(consentTypes))
	copy(out, consentTypes)
	return out
}

// Valid reports whether the consent type is a known category.
func (c ConsentType) Valid() bool {
	for _, known := range consentTypes {
		if known == c {
			return true
		}
	}
	return false
}

// RequiredConsents lists the consent types a registration must grant.
func RequiredConsents() []ConsentType {
	return []ConsentType{ConsentPrivacyPolicy, ConsentTermsOfService}
}

// Consent methods describe how a consent record was captured.
const (
	ConsentMethodSignup   = "signup"
	ConsentMethodSettings = "settings"
	ConsentMethodAPI      = "api"
)

// User account statuses.
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
	UserStatusDeleted   = "deleted"
)

// User represents an account holder. Identity UUIDs come from the upstream
// auth provider when present; otherwise the service mints one.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          uuid.UUID       `bun:",pk,type:uuid"        json:"id"`
	Email       string          `bun:"email,notnull,unique" json:"email"`
	DisplayName string          `bun:"display_name,notnull" json:"display_name"`
	Timezone    string          `bun:"timezone,notnull,default:'America/Toronto'" json:"timezone"`
	Province    domain.Province `bun:"province"             json:"province,omitempty"`
	Status      string          `bun:"status,notnull,default:'active'" json:"status"`
	Onboarded   bool            `bun:"onboarded,notnull,default:false" json:"onboarded"`
	DeletedAt   *time.Time      `bun:"deleted_at,nullzero"  json:"deleted_at,omitempty"`
	CreatedAt   time.Time       `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time       `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Consents []*ConsentRecord `bun:"rel:has-many,join:id=user_id" json:"consents,omitempty"`
}

// ConsentRecord is one append-only entry in a user's consent ledger. Records
// are never updated; withdrawing consent appends a Granted=false record.
type ConsentRecord struct {
	bun.BaseModel `bun:"table:consent_records,alias:cr"`

	ID         uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	UserID     uuid.UUID      `bun:"user_id,notnull,type:uuid" json:"user_id"`
	Type       ConsentType    `bun:"consent_type,notnull" json:"consent_type"`
	Version    string         `bun:"version,notnull" json:"version"`
	Granted    bool           `bun:"granted,notnull" json:"granted"`
	Method     string         `bun:"method,notnull,default:'api'" json:"method"`
	Metadata   map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	RecordedAt time.Time      `bun:"recorded_at,nullzero,default:current_timestamp" json:"recorded_at"`
	ExpiresAt  *time.Time     `bun:"expires_at,nullzero" json:"expires_at,omitempty"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
}

// Active reports whether the record grants consent at the given instant.
func (r *ConsentRecord) Active(now time.Time) bool {
	if r == nil || !r.Granted {
		return false
	}
	if r.ExpiresAt != nil && !r.ExpiresAt.After(now) {
		return false
	}
	return true
}
