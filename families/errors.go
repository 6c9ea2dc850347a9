package families

import (
	"errors"
	"fmt"
)

var (
	ErrFamilyIDRequired     = errors.New("families: family id required")
	ErrUserIDRequired       = errors.New("families: user id required")
	ErrNameRequired         = errors.New("families: name is required")
	ErrSlugInvalid          = errors.New("families: slug contains invalid characters")
	ErrSlugTaken            = errors.New("families: slug already exists")
	ErrCreatorRequired      = errors.New("families: creator id required")
	ErrMemberNotFound       = errors.New("families: member not found")
	ErrAlreadyMember        = errors.New("families: user is already an active member")
	ErrLastOwner            = errors.New("families: cannot remove the last owner")
	ErrRoleInvalid          = errors.New("families: role is invalid")
	ErrInvitationNotFound   = errors.New("families: invitation not found")
	ErrInvitationExpired    = errors.New("families: invitation has expired")
	ErrInvitationNotExpired = errors.New("families: invitation has not expired yet")
	ErrInvitationUsed       = errors.New("families: invitation already used")
	ErrInvitationRevoked    = errors.New("families: invitation was revoked")
	ErrInviteeEmailInvalid  = errors.New("families: invitee email is invalid")
	ErrSelfRemovalForbidden = errors.New("families: the last owner cannot leave")
)

// NotFoundError represents missing records from family lookups.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}
