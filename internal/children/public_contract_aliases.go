package children

import nschildren "github.com/goliatone/go-nestsync/children"

type (
	Service            = nschildren.Service
	CreateChildRequest = nschildren.CreateChildRequest
	UpdateChildRequest = nschildren.UpdateChildRequest
	DeleteChildRequest = nschildren.DeleteChildRequest
)

var (
	ErrChildIDRequired   = nschildren.ErrChildIDRequired
	ErrFamilyIDRequired  = nschildren.ErrFamilyIDRequired
	ErrUserIDRequired    = nschildren.ErrUserIDRequired
	ErrNameRequired      = nschildren.ErrNameRequired
	ErrBirthDateRequired = nschildren.ErrBirthDateRequired
	ErrBirthDateInFuture = nschildren.ErrBirthDateInFuture
	ErrDailyUsageInvalid = nschildren.ErrDailyUsageInvalid
	ErrSizeInvalid       = nschildren.ErrSizeInvalid
	ErrWeightInvalid     = nschildren.ErrWeightInvalid
)
