package families

import (
	"context"

	"github.com/goliatone/go-nestsync/domain"
	"github.com/google/uuid"
)

// Service exposes family collaboration use cases.
type Service interface {
	Create(ctx context.Context, req CreateFamilyRequest) (*Family, error)
	Get(ctx context.Context, id uuid.UUID) (*Family, error)
	GetBySlug(ctx context.Context, slug string) (*Family, error)
	List(ctx context.Context, userID uuid.UUID) ([]*Family, error)
	Update(ctx context.Context, req UpdateFamilyRequest) (*Family, error)
	Delete(ctx context.Context, req DeleteFamilyRequest) error
	Members(ctx context.Context, familyID uuid.UUID) ([]*FamilyMember, error)
	Membership(ctx context.Context, familyID, userID uuid.UUID) (*FamilyMember, error)
	UpdateMemberRole(ctx context.Context, req UpdateMemberRoleRequest) (*FamilyMember, error)
	RemoveMember(ctx context.Context, req RemoveMemberRequest) error
	Invite(ctx context.Context, req InviteMemberRequest) (*FamilyInvitation, error)
	AcceptInvitation(ctx context.Context, req AcceptInvitationRequest) (*FamilyMember, error)
	RevokeInvitation(ctx context.Context, req RevokeInvitationRequest) error
	ExpireInvitation(ctx context.Context, invitationID uuid.UUID) (*FamilyInvitation, error)
	ListInvitations(ctx context.Context, familyID uuid.UUID) ([]*FamilyInvitation, error)
}

// CreateFamilyRequest captures the information required to create a family.
// Slug is derived from Name when empty.
type CreateFamilyRequest struct {
	Name      string
	Slug      string
	CreatedBy uuid.UUID
}

// UpdateFamilyRequest captures mutable family fields.
type UpdateFamilyRequest struct {
	ID        uuid.UUID
	Name      *string
	Slug      *string
	UpdatedBy uuid.UUID
}

// DeleteFamilyRequest captures the information required to soft delete a
// family together with its memberships and open invitations.
type DeleteFamilyRequest struct {
	ID        uuid.UUID
	DeletedBy uuid.UUID
}

// UpdateMemberRoleRequest changes a member's role within a family.
type UpdateMemberRoleRequest struct {
	FamilyID  uuid.UUID
	UserID    uuid.UUID
	Role      domain.Role
	UpdatedBy uuid.UUID
}

// RemoveMemberRequest removes a member, or lets a member leave when
// RemovedBy equals UserID.
type RemoveMemberRequest struct {
	FamilyID  uuid.UUID
	UserID    uuid.UUID
	RemovedBy uuid.UUID
}

// InviteMemberRequest creates a single-use invitation code. Email directs
// the invitation to a specific address; empty means a shareable code.
type InviteMemberRequest struct {
	FamilyID  uuid.UUID
	Email     string
	Role      domain.Role
	InvitedBy uuid.UUID
}

// AcceptInvitationRequest redeems an invitation code for the acting user.
type AcceptInvitationRequest struct {
	Code   string
	UserID uuid.UUID
}

// RevokeInvitationRequest invalidates a pending invitation.
type RevokeInvitationRequest struct {
	InvitationID uuid.UUID
	RevokedBy    uuid.UUID
}
