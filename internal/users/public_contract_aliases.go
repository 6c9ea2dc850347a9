package users

import nsusers "github.com/goliatone/go-nestsync/users"

type (
	Service              = nsusers.Service
	RegisterUserRequest  = nsusers.RegisterUserRequest
	ConsentInput         = nsusers.ConsentInput
	UpdateUserRequest    = nsusers.UpdateUserRequest
	DeleteUserRequest    = nsusers.DeleteUserRequest
	RecordConsentRequest = nsusers.RecordConsentRequest
	ConsentRequiredError = nsusers.ConsentRequiredError
)

var (
	ErrUserIDRequired         = nsusers.ErrUserIDRequired
	ErrEmailRequired          = nsusers.ErrEmailRequired
	ErrEmailInvalid           = nsusers.ErrEmailInvalid
	ErrEmailTaken             = nsusers.ErrEmailTaken
	ErrDisplayNameRequired    = nsusers.ErrDisplayNameRequired
	ErrTimezoneInvalid        = nsusers.ErrTimezoneInvalid
	ErrProvinceInvalid        = nsusers.ErrProvinceInvalid
	ErrUserDeleted            = nsusers.ErrUserDeleted
	ErrConsentRequired        = nsusers.ErrConsentRequired
	ErrConsentTypeInvalid     = nsusers.ErrConsentTypeInvalid
	ErrConsentVersionRequired = nsusers.ErrConsentVersionRequired
)
