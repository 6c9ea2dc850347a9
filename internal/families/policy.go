package families

import (
	"context"
	"errors"

	"github.com/goliatone/go-nestsync/internal/permissions"
	"github.com/google/uuid"
)

// MembershipPolicy answers access questions from family membership rows. It
// is the in-process analog of the row level security policies a hosted
// database would enforce: unknown families and inactive memberships deny the
// same way a policy returning zero rows would.
type MembershipPolicy struct {
	families Service
}

// NewMembershipPolicy builds a policy over the family service.
func NewMembershipPolicy(families Service) *MembershipPolicy {
	return &MembershipPolicy{families: families}
}

// CanRead allows any active member.
func (p *MembershipPolicy) CanRead(ctx context.Context, familyID, userID uuid.UUID) error {
	member, err := p.resolve(ctx, familyID, userID)
	if err != nil {
		return err
	}
	if !member.Role.Valid() {
		return permissions.Error{}
	}
	return nil
}

// CanWrite allows owners and caregivers.
func (p *MembershipPolicy) CanWrite(ctx context.Context, familyID, userID uuid.UUID) error {
	member, err := p.resolve(ctx, familyID, userID)
	if err != nil {
		return err
	}
	if !member.Role.CanWrite() {
		return permissions.Error{}
	}
	return nil
}

// CanManage allows owners only.
func (p *MembershipPolicy) CanManage(ctx context.Context, familyID, userID uuid.UUID) error {
	member, err := p.resolve(ctx, familyID, userID)
	if err != nil {
		return err
	}
	if !member.Role.CanManage() {
		return permissions.Error{}
	}
	return nil
}

func (p *MembershipPolicy) resolve(ctx context.Context, familyID, userID uuid.UUID) (*FamilyMember, error) {
	if p == nil || p.families == nil {
		return nil, permissions.Error{}
	}
	member, err := p.families.Membership(ctx, familyID, userID)
	if err != nil {
		var notFound *NotFoundError
		if errors.Is(err, ErrMemberNotFound) || errors.Is(err, ErrUserIDRequired) || errors.As(err, &notFound) {
			return nil, permissions.Error{}
		}
		return nil, err
	}
	return member, nil
}
