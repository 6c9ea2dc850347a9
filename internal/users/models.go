package users

import nsusers "github.com/goliatone/go-nestsync/users"

type (
	User          = nsusers.User
	ConsentRecord = nsusers.ConsentRecord
	ConsentType   = nsusers.ConsentType
	NotFoundError = nsusers.NotFoundError
)
