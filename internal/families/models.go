package families

import nsfamilies "github.com/goliatone/go-nestsync/families"

type (
	Family           = nsfamilies.Family
	FamilyMember     = nsfamilies.FamilyMember
	FamilyInvitation = nsfamilies.FamilyInvitation
	NotFoundError    = nsfamilies.NotFoundError
)
