package interfaces

import (
	"context"

	usertypes "github.com/goliatone/go-users/pkg/types"
)

// ActivityRecord mirrors the go-users activity record contract so feature
// services can report caregiver actions without importing go-users directly.
type ActivityRecord = usertypes.ActivityRecord

// ActivitySink receives activity records. The pkg/activity emitter feeds one
// through its user-sink hook; embedding hosts supply an implementation to
// land events in a go-users activity log.
type ActivitySink interface {
	Log(ctx context.Context, record ActivityRecord) error
}
