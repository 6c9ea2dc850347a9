package children

import nschildren "github.com/goliatone/go-nestsync/children"

type (
	Child         = nschildren.Child
	SizeAdvisory  = nschildren.SizeAdvisory
	NotFoundError = nschildren.NotFoundError
)

// DefaultDailyUsage mirrors the public default expected changes per day.
const DefaultDailyUsage = nschildren.DefaultDailyUsage
