package inventory

import (
	nsinventory "github.com/goliatone/go-nestsync/inventory"
)

type (
	InventoryItem   = nsinventory.InventoryItem
	UsageLog        = nsinventory.UsageLog
	StockProjection = nsinventory.StockProjection
	UsageKind       = nsinventory.UsageKind
	NotFoundError   = nsinventory.NotFoundError
)

const (
	UsageWet    = nsinventory.UsageWet
	UsageSoiled = nsinventory.UsageSoiled
	UsageBoth   = nsinventory.UsageBoth
	UsageDry    = nsinventory.UsageDry
)
