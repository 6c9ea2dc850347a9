package users

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunUserRepository implements UserRepository over Bun.
type BunUserRepository struct {
	repo repository.Repository[*User]
}

func NewBunUserRepository(db *bun.DB) *BunUserRepository {
	return NewBunUserRepositoryWithCache(db, nil, nil)
}

func NewBunUserRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunUserRepository {
	base := NewUserRecordRepository(db)
	wrapped := wrapWithCache(base, cacheService, keySerializer)
	return &BunUserRepository{repo: wrapped}
}

func (r *BunUserRepository) Create(ctx context.Context, record *User) (*User, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *BunUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "user", id.String())
	}
	return record, nil
}

func (r *BunUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	record, err := r.repo.GetByIdentifier(ctx, email)
	if err != nil {
		return nil, mapRepositoryError(err, "user", email)
	}
	return record, nil
}

func (r *BunUserRepository) Update(ctx context.Context, record *User) (*User, error) {
	updated, err := r.repo.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// BunConsentRepository implements ConsentRepository over Bun.
type BunConsentRepository struct {
	repo repository.Repository[*ConsentRecord]
}

func NewBunConsentRepository(db *bun.DB) *BunConsentRepository {
	return &BunConsentRepository{repo: NewConsentRecordRepository(db)}
}

func (r *BunConsentRepository) Append(ctx context.Context, record *ConsentRecord) (*ConsentRecord, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BunConsentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*ConsentRecord, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.user_id = ?", userID).
				OrderExpr("?TableAlias.recorded_at ASC")
		}),
	)
	return records, err
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

// isUniqueViolation sniffs driver error text; sqlite and postgres spell
// unique violations differently.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
