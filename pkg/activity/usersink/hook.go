// Package usersink bridges activity events into the go-users activity log.
package usersink

import (
	"context"
	"maps"

	"github.com/goliatone/go-nestsync/pkg/activity"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	"github.com/google/uuid"
)

// Hook forwards activity events to a go-users compatible sink. Events
// without a verb or an unset sink are skipped silently.
type Hook struct {
	Sink interfaces.ActivitySink
}

// Notify maps the event onto an ActivityRecord and logs it.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil || event.Verb == "" {
		return nil
	}

	record := interfaces.ActivityRecord{
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		OccurredAt: event.OccurredAt,
	}
	record.ActorID = parseID(event.ActorID)
	record.UserID = parseID(event.UserID)
	record.TenantID = parseID(event.TenantID)

	data := map[string]any{}
	if event.Metadata != nil {
		data = maps.Clone(event.Metadata)
	}
	if event.DefinitionCode != "" {
		data["definition_code"] = event.DefinitionCode
	}
	if len(event.Recipients) > 0 {
		data["recipients"] = event.Recipients
	}
	if len(data) > 0 {
		record.Data = data
	}

	return h.Sink.Log(ctx, record)
}

func parseID(value string) uuid.UUID {
	if value == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil
	}
	return id
}
