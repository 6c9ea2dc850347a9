package families

import (
	"time"

	"github.com/goliatone/go-nestsync/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Member statuses.
const (
	MemberStatusActive  = "active"
	MemberStatusRemoved = "removed"
)

// Family is the tenancy unit. All child, inventory, usage, notification, and
// billing data hangs off a family.
type Family struct {
	bun.BaseModel `bun:"table:families,alias:f"`

	ID        uuid.UUID  `bun:",pk,type:uuid"       json:"id"`
	Name      string     `bun:"name,notnull"        json:"name"`
	Slug      string     `bun:"slug,notnull,unique" json:"slug"`
	CreatedBy uuid.UUID  `bun:"created_by,notnull,type:uuid" json:"created_by"`
	DeletedAt *time.Time `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Members []*FamilyMember `bun:"rel:has-many,join:id=family_id" json:"members,omitempty"`
}

// FamilyMember links a user to a family with a role. One row per
// (family, user) pair; removed members keep their row with status=removed so
// rejoining reactivates instead of duplicating.
type FamilyMember struct {
	bun.BaseModel `bun:"table:family_members,alias:fm"`

	ID        uuid.UUID   `bun:",pk,type:uuid" json:"id"`
	FamilyID  uuid.UUID   `bun:"family_id,notnull,type:uuid" json:"family_id"`
	UserID    uuid.UUID   `bun:"user_id,notnull,type:uuid" json:"user_id"`
	Role      domain.Role `bun:"role,notnull,default:'caregiver'" json:"role"`
	Status    string      `bun:"status,notnull,default:'active'" json:"status"`
	InvitedBy *uuid.UUID  `bun:"invited_by,type:uuid,nullzero" json:"invited_by,omitempty"`
	JoinedAt  time.Time   `bun:"joined_at,nullzero,default:current_timestamp" json:"joined_at"`
	CreatedAt time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Family *Family `bun:"rel:belongs-to,join:family_id=id" json:"family,omitempty"`
}

// IsActive reports whether the membership currently grants access.
func (m *FamilyMember) IsActive() bool {
	return m != nil && m.Status == MemberStatusActive
}

// FamilyInvitation is a single-use join code. Expired and used invitations
// are retained for the audit trail.
type FamilyInvitation struct {
	bun.BaseModel `bun:"table:family_invitations,alias:fi"`

	ID        uuid.UUID   `bun:",pk,type:uuid"       json:"id"`
	FamilyID  uuid.UUID   `bun:"family_id,notnull,type:uuid" json:"family_id"`
	Code      string      `bun:"code,notnull,unique" json:"code"`
	Email     *string     `bun:"email"               json:"email,omitempty"`
	Role      domain.Role `bun:"role,notnull,default:'caregiver'" json:"role"`
	CreatedBy uuid.UUID   `bun:"created_by,notnull,type:uuid" json:"created_by"`
	ExpiresAt time.Time   `bun:"expires_at,notnull"  json:"expires_at"`
	UsedAt    *time.Time  `bun:"used_at,nullzero"    json:"used_at,omitempty"`
	UsedBy    *uuid.UUID  `bun:"used_by,type:uuid,nullzero" json:"used_by,omitempty"`
	RevokedAt *time.Time  `bun:"revoked_at,nullzero" json:"revoked_at,omitempty"`
	CreatedAt time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`

	Family *Family `bun:"rel:belongs-to,join:family_id=id" json:"family,omitempty"`
}

// Pending reports whether the invitation can still be accepted at the given
// instant.
func (i *FamilyInvitation) Pending(now time.Time) bool {
	if i == nil || i.UsedAt != nil || i.RevokedAt != nil {
		return false
	}
	return i.ExpiresAt.After(now)
}
