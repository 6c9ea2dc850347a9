package families

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewFamilyRecordRepository(db *bun.DB) repository.Repository[*Family] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Family]{
		NewRecord: func() *Family { return &Family{} },
		GetID: func(f *Family) uuid.UUID {
			return f.ID
		},
		SetID: func(f *Family, id uuid.UUID) {
			f.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(f *Family) string {
			return f.Slug
		},
	})
}

func NewFamilyMemberRecordRepository(db *bun.DB) repository.Repository[*FamilyMember] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*FamilyMember]{
		NewRecord: func() *FamilyMember { return &FamilyMember{} },
		GetID: func(m *FamilyMember) uuid.UUID {
			return m.ID
		},
		SetID: func(m *FamilyMember, id uuid.UUID) {
			m.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(m *FamilyMember) string {
			if m == nil {
				return ""
			}
			return m.ID.String()
		},
	})
}

func NewFamilyInvitationRecordRepository(db *bun.DB) repository.Repository[*FamilyInvitation] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*FamilyInvitation]{
		NewRecord: func() *FamilyInvitation { return &FamilyInvitation{} },
		GetID: func(i *FamilyInvitation) uuid.UUID {
			return i.ID
		},
		SetID: func(i *FamilyInvitation, id uuid.UUID) {
			i.ID = id
		},
		GetIdentifier: func() string {
			return "code"
		},
		GetIdentifierValue: func(i *FamilyInvitation) string {
			return i.Code
		},
	})
}
