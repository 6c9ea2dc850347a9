package children

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunChildRepository implements ChildRepository over Bun.
type BunChildRepository struct {
	repo repository.Repository[*Child]
}

func NewBunChildRepository(db *bun.DB) *BunChildRepository {
	return &BunChildRepository{repo: NewChildRecordRepository(db)}
}

func (r *BunChildRepository) Create(ctx context.Context, record *Child) (*Child, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BunChildRepository) GetByID(ctx context.Context, id uuid.UUID) (*Child, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "child", id.String())
	}
	return record, nil
}

func (r *BunChildRepository) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]*Child, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.family_id = ?", familyID).
				OrderExpr("?TableAlias.created_at ASC")
		}),
	)
	return records, err
}

func (r *BunChildRepository) Update(ctx context.Context, record *Child) (*Child, error) {
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
