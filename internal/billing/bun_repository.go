package billing

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

// BunPlanRepository implements PlanRepository over Bun.
type BunPlanRepository struct {
	repo repository.Repository[*Plan]
}

func NewBunPlanRepository(db *bun.DB) *BunPlanRepository {
	return NewBunPlanRepositoryWithCache(db, nil, nil)
}

// NewBunPlanRepositoryWithCache caches plan reads. The catalog only changes
// when seeding runs, so cached lookups stay fresh between deploys.
func NewBunPlanRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunPlanRepository {
	base := NewPlanRecordRepository(db)
	return &BunPlanRepository{repo: wrapWithCache(base, cacheService, keySerializer)}
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}

func (r *BunPlanRepository) Create(ctx context.Context, record *Plan) (*Plan, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BunPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "plan", id.String())
	}
	return record, nil
}

func (r *BunPlanRepository) GetByCode(ctx context.Context, code string) (*Plan, error) {
	record, err := r.repo.GetByIdentifier(ctx, code)
	if err != nil {
		return nil, mapRepositoryError(err, "plan", code)
	}
	return record, nil
}

func (r *BunPlanRepository) List(ctx context.Context) ([]*Plan, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.price_cents ASC")
		}),
	)
	return records, err
}

func (r *BunPlanRepository) Update(ctx context.Context, record *Plan) (*Plan, error) {
	updated, err := r.repo.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// BunSubscriptionRepository implements SubscriptionRepository over Bun.
type BunSubscriptionRepository struct {
	repo repository.Repository[*Subscription]
}

func NewBunSubscriptionRepository(db *bun.DB) *BunSubscriptionRepository {
	return &BunSubscriptionRepository{repo: NewSubscriptionRecordRepository(db)}
}

func (r *BunSubscriptionRepository) Create(ctx context.Context, record *Subscription) (*Subscription, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BunSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "subscription", id.String())
	}
	return record, nil
}

func (r *BunSubscriptionRepository) GetOpenByFamily(ctx context.Context, familyID uuid.UUID) (*Subscription, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.family_id = ?", familyID).
				Where("?TableAlias.deleted_at IS NULL").
				Where("?TableAlias.status IN (?)", bun.In([]string{
					SubscriptionTrialing, SubscriptionActive, SubscriptionPastDue,
				})).
				OrderExpr("?TableAlias.created_at DESC").
				Limit(1)
		}),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "subscription", Key: familyID.String()}
	}
	return records[0], nil
}

func (r *BunSubscriptionRepository) GetByProviderSubscriptionID(ctx context.Context, providerID string) (*Subscription, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.provider_subscription_id = ?", providerID).
				Where("?TableAlias.deleted_at IS NULL").
				Limit(1)
		}),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "subscription", Key: providerID}
	}
	return records[0], nil
}

func (r *BunSubscriptionRepository) Update(ctx context.Context, record *Subscription) (*Subscription, error) {
	updated, err := r.repo.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// BunBillingRecordRepository implements RecordRepository over Bun.
type BunBillingRecordRepository struct {
	repo repository.Repository[*BillingRecord]
}

func NewBunBillingRecordRepository(db *bun.DB) *BunBillingRecordRepository {
	return &BunBillingRecordRepository{repo: NewBillingRecordRepository(db)}
}

func (r *BunBillingRecordRepository) Create(ctx context.Context, record *BillingRecord) (*BillingRecord, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BunBillingRecordRepository) GetByProviderInvoiceID(ctx context.Context, invoiceID string) (*BillingRecord, error) {
	record, err := r.repo.GetByIdentifier(ctx, invoiceID)
	if err != nil {
		return nil, mapRepositoryError(err, "billing record", invoiceID)
	}
	return record, nil
}

func (r *BunBillingRecordRepository) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]*BillingRecord, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.family_id = ?", familyID).
				OrderExpr("?TableAlias.created_at DESC")
		}),
	)
	return records, err
}

func (r *BunBillingRecordRepository) Update(ctx context.Context, record *BillingRecord) (*BillingRecord, error) {
	updated, err := r.repo.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// BunWebhookRepository implements WebhookRepository over Bun.
type BunWebhookRepository struct {
	repo repository.Repository[*WebhookEvent]
}

func NewBunWebhookRepository(db *bun.DB) *BunWebhookRepository {
	return &BunWebhookRepository{repo: NewWebhookEventRecordRepository(db)}
}

func (r *BunWebhookRepository) Create(ctx context.Context, record *WebhookEvent) (*WebhookEvent, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errWebhookExists
		}
		return nil, err
	}
	return created, nil
}

func (r *BunWebhookRepository) GetByID(ctx context.Context, id uuid.UUID) (*WebhookEvent, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "webhook event", id.String())
	}
	return record, nil
}

func (r *BunWebhookRepository) GetByProviderEventID(ctx context.Context, providerEventID string) (*WebhookEvent, error) {
	record, err := r.repo.GetByIdentifier(ctx, providerEventID)
	if err != nil {
		return nil, mapRepositoryError(err, "webhook event", providerEventID)
	}
	return record, nil
}

func (r *BunWebhookRepository) Update(ctx context.Context, record *WebhookEvent) (*WebhookEvent, error) {
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
