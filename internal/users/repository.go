package users

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewUserRecordRepository(db *bun.DB) repository.Repository[*User] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			u.ID = id
		},
		GetIdentifier: func() string {
			return "email"
		},
		GetIdentifierValue: func(u *User) string {
			return u.Email
		},
	})
}

func NewConsentRecordRepository(db *bun.DB) repository.Repository[*ConsentRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*ConsentRecord]{
		NewRecord: func() *ConsentRecord { return &ConsentRecord{} },
		GetID: func(r *ConsentRecord) uuid.UUID {
			return r.ID
		},
		SetID: func(r *ConsentRecord, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(r *ConsentRecord) string {
			if r == nil {
				return ""
			}
			return r.ID.String()
		},
	})
}
