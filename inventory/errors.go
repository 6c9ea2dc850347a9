package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrItemIDRequired     = errors.New("inventory: item id required")
	ErrChildIDRequired    = errors.New("inventory: child id required")
	ErrBrandRequired      = errors.New("inventory: brand is required")
	ErrSizeInvalid        = errors.New("inventory: diaper size is invalid")
	ErrQuantityInvalid    = errors.New("inventory: quantity must be positive")
	ErrQuantityExceeded   = errors.New("inventory: remaining cannot exceed purchased")
	ErrCostInvalid        = errors.New("inventory: cost must not be negative")
	ErrUsageIDRequired    = errors.New("inventory: usage id required")
	ErrUsageKindInvalid   = errors.New("inventory: usage kind is invalid")
	ErrOccurredInFuture   = errors.New("inventory: occurred_at cannot be in the future")
	ErrPurchasedInFuture  = errors.New("inventory: purchased_at cannot be in the future")
	ErrLoggedByRequired   = errors.New("inventory: logging user required")
	ErrActorRequired      = errors.New("inventory: acting user id required")
)

// NotFoundError represents missing records from inventory lookups.
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
