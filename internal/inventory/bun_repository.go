package inventory

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunItemRepository implements ItemRepository over Bun.
type BunItemRepository struct {
	repo repository.Repository[*InventoryItem]
}

func NewBunItemRepository(db *bun.DB) *BunItemRepository {
	return &BunItemRepository{repo: NewInventoryItemRecordRepository(db)}
}

func (r *BunItemRepository) Create(ctx context.Context, record *InventoryItem) (*InventoryItem, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BunItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*InventoryItem, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "inventory item", id.String())
	}
	return record, nil
}

func (r *BunItemRepository) ListByChild(ctx context.Context, childID uuid.UUID) ([]*InventoryItem, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.child_id = ?", childID).
				OrderExpr("?TableAlias.purchased_at ASC")
		}),
	)
	return records, err
}

func (r *BunItemRepository) ListChildIDs(ctx context.Context) ([]uuid.UUID, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.ColumnExpr("DISTINCT ?TableAlias.child_id").
				Where("?TableAlias.deleted_at IS NULL").
				OrderExpr("?TableAlias.child_id ASC")
		}),
	)
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(records))
	for _, record := range records {
		out = append(out, record.ChildID)
	}
	return out, nil
}

func (r *BunItemRepository) Update(ctx context.Context, record *InventoryItem) (*InventoryItem, error) {
	updated, err := r.repo.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// BunUsageRepository implements UsageRepository over Bun.
type BunUsageRepository struct {
	repo repository.Repository[*UsageLog]
}

func NewBunUsageRepository(db *bun.DB) *BunUsageRepository {
	return &BunUsageRepository{repo: NewUsageLogRecordRepository(db)}
}

func (r *BunUsageRepository) Create(ctx context.Context, record *UsageLog) (*UsageLog, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BunUsageRepository) GetByID(ctx context.Context, id uuid.UUID) (*UsageLog, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "usage log", id.String())
	}
	return record, nil
}

func (r *BunUsageRepository) ListByChild(ctx context.Context, childID uuid.UUID, since time.Time) ([]*UsageLog, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.child_id = ?", childID)
			if !since.IsZero() {
				q = q.Where("?TableAlias.occurred_at >= ?", since)
			}
			return q.OrderExpr("?TableAlias.occurred_at DESC")
		}),
	)
	return records, err
}

func (r *BunUsageRepository) Update(ctx context.Context, record *UsageLog) (*UsageLog, error) {
	updated, err := r.repo.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{
			Resource: resource,
			Key:      key,
		}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
