package children

import (
	"errors"
	"fmt"
)

var (
	ErrChildIDRequired   = errors.New("children: child id required")
	ErrFamilyIDRequired  = errors.New("children: family id required")
	ErrUserIDRequired    = errors.New("children: acting user id required")
	ErrNameRequired      = errors.New("children: name is required")
	ErrBirthDateRequired = errors.New("children: birth date is required")
	ErrBirthDateInFuture = errors.New("children: birth date cannot be in the future")
	ErrDailyUsageInvalid = errors.New("children: daily usage must be between 1 and 24")
	ErrSizeInvalid       = errors.New("children: diaper size is invalid")
	ErrWeightInvalid     = errors.New("children: weight must be positive")
)

// NotFoundError represents missing records from child lookups.
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
