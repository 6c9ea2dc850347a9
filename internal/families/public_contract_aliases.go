package families

import nsfamilies "github.com/goliatone/go-nestsync/families"

type (
	Service                 = nsfamilies.Service
	CreateFamilyRequest     = nsfamilies.CreateFamilyRequest
	UpdateFamilyRequest     = nsfamilies.UpdateFamilyRequest
	DeleteFamilyRequest     = nsfamilies.DeleteFamilyRequest
	UpdateMemberRoleRequest = nsfamilies.UpdateMemberRoleRequest
	RemoveMemberRequest     = nsfamilies.RemoveMemberRequest
	InviteMemberRequest     = nsfamilies.InviteMemberRequest
	AcceptInvitationRequest = nsfamilies.AcceptInvitationRequest
	RevokeInvitationRequest = nsfamilies.RevokeInvitationRequest
)

var (
	ErrFamilyIDRequired     = nsfamilies.ErrFamilyIDRequired
	ErrUserIDRequired       = nsfamilies.ErrUserIDRequired
	ErrNameRequired         = nsfamilies.ErrNameRequired
	ErrSlugInvalid          = nsfamilies.ErrSlugInvalid
	ErrSlugTaken            = nsfamilies.ErrSlugTaken
	ErrCreatorRequired      = nsfamilies.ErrCreatorRequired
	ErrMemberNotFound       = nsfamilies.ErrMemberNotFound
	ErrAlreadyMember        = nsfamilies.ErrAlreadyMember
	ErrLastOwner            = nsfamilies.ErrLastOwner
	ErrRoleInvalid          = nsfamilies.ErrRoleInvalid
	ErrInvitationNotFound   = nsfamilies.ErrInvitationNotFound
	ErrInvitationExpired    = nsfamilies.ErrInvitationExpired
	ErrInvitationNotExpired = nsfamilies.ErrInvitationNotExpired
	ErrInvitationUsed       = nsfamilies.ErrInvitationUsed
	ErrInvitationRevoked    = nsfamilies.ErrInvitationRevoked
	ErrInviteeEmailInvalid  = nsfamilies.ErrInviteeEmailInvalid
	ErrSelfRemovalForbidden = nsfamilies.ErrSelfRemovalForbidden
)
