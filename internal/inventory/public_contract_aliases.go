package inventory

import (
	nsinventory "github.com/goliatone/go-nestsync/inventory"
)

// Service re-exports the public service contract.
type Service = nsinventory.Service

type (
	AddItemRequest     = nsinventory.AddItemRequest
	UpdateItemRequest  = nsinventory.UpdateItemRequest
	DeleteItemRequest  = nsinventory.DeleteItemRequest
	LogUsageRequest    = nsinventory.LogUsageRequest
	DeleteUsageRequest = nsinventory.DeleteUsageRequest
)

var (
	ErrItemIDRequired    = nsinventory.ErrItemIDRequired
	ErrChildIDRequired   = nsinventory.ErrChildIDRequired
	ErrBrandRequired     = nsinventory.ErrBrandRequired
	ErrSizeInvalid       = nsinventory.ErrSizeInvalid
	ErrQuantityInvalid   = nsinventory.ErrQuantityInvalid
	ErrQuantityExceeded  = nsinventory.ErrQuantityExceeded
	ErrCostInvalid       = nsinventory.ErrCostInvalid
	ErrUsageIDRequired   = nsinventory.ErrUsageIDRequired
	ErrUsageKindInvalid  = nsinventory.ErrUsageKindInvalid
	ErrOccurredInFuture  = nsinventory.ErrOccurredInFuture
	ErrPurchasedInFuture = nsinventory.ErrPurchasedInFuture
	ErrLoggedByRequired  = nsinventory.ErrLoggedByRequired
	ErrActorRequired     = nsinventory.ErrActorRequired
)
