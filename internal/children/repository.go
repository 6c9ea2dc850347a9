package children

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewChildRecordRepository(db *bun.DB) repository.Repository[*Child] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Child]{
		NewRecord: func() *Child { return &Child{} },
		GetID: func(c *Child) uuid.UUID {
			return c.ID
		},
		SetID: func(c *Child, id uuid.UUID) {
			c.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(c *Child) string {
			if c == nil {
				return ""
			}
			return c.ID.String()
		},
	})
}
