package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const defaultListLimit = 200

type eventRow struct {
	bun.BaseModel `bun:"table:audit_events,alias:ae"`

	ID         uuid.UUID      `bun:",pk,type:uuid"`
	EntityType string         `bun:"entity_type,notnull"`
	EntityID   string         `bun:"entity_id,notnull"`
	Action     string         `bun:"action,notnull"`
	ActorID    string         `bun:"actor_id"`
	OccurredAt time.Time      `bun:"occurred_at,notnull"`
	Metadata   map[string]any `bun:"metadata,type:jsonb"`
}

// BunRecorder persists audit events to the audit_events table.
type BunRecorder struct {
	db    *bun.DB
	limit int
}

// NewBunRecorder creates a recorder over the supplied database.
func NewBunRecorder(db *bun.DB) *BunRecorder {
	return &BunRecorder{db: db, limit: defaultListLimit}
}

func (r *BunRecorder) Record(ctx context.Context, event Event) error {
	row := &eventRow{
		ID:         uuid.New(),
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		Action:     event.Action,
		ActorID:    event.ActorID,
		OccurredAt: event.OccurredAt,
		Metadata:   event.Metadata,
	}
	_, err := r.db.NewInsert().Model(row).Exec(ctx)
	return err
}

// List returns the most recent audit events, newest first.
func (r *BunRecorder) List(ctx context.Context) ([]Event, error) {
	var rows []*eventRow
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("?TableAlias.occurred_at DESC").
		Limit(r.limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, Event{
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Action:     row.Action,
			ActorID:    row.ActorID,
			OccurredAt: row.OccurredAt,
			Metadata:   row.Metadata,
		})
	}
	return out, nil
}

func (r *BunRecorder) Clear(ctx context.Context) error {
	_, err := r.db.NewDelete().
		Model((*eventRow)(nil)).
		Where("1 = 1").
		Exec(ctx)
	return err
}

// ClearBefore deletes rows older than the cutoff, leaving the retention
// window intact.
func (r *BunRecorder) ClearBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.NewDelete().
		Model((*eventRow)(nil)).
		Where("occurred_at < ?", cutoff).
		Exec(ctx)
	return err
}
