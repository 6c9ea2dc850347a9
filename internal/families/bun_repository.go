package families

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

// BunFamilyRepository implements FamilyRepository over Bun.
type BunFamilyRepository struct {
	repo repository.Repository[*Family]
}

func NewBunFamilyRepository(db *bun.DB) *BunFamilyRepository {
	return NewBunFamilyRepositoryWithCache(db, nil, nil)
}

func NewBunFamilyRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunFamilyRepository {
	base := NewFamilyRecordRepository(db)
	wrapped := wrapWithCache(base, cacheService, keySerializer)
	return &BunFamilyRepository{repo: wrapped}
}

func (r *BunFamilyRepository) Create(ctx context.Context, record *Family) (*Family, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *BunFamilyRepository) GetByID(ctx context.Context, id uuid.UUID) (*Family, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "family", id.String())
	}
	return record, nil
}

func (r *BunFamilyRepository) GetBySlug(ctx context.Context, slug string) (*Family, error) {
	record, err := r.repo.GetByIdentifier(ctx, slug)
	if err != nil {
		return nil, mapRepositoryError(err, "family", slug)
	}
	return record, nil
}

func (r *BunFamilyRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Family, error) {
	if len(ids) == 0 {
		return []*Family{}, nil
	}
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.id IN (?)", bun.In(ids)).
				OrderExpr("?TableAlias.created_at ASC")
		}),
	)
	return records, err
}

func (r *BunFamilyRepository) Update(ctx context.Context, record *Family) (*Family, error) {
	updated, err := r.repo.Update(ctx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return updated, nil
}

// BunMemberRepository implements MemberRepository over Bun.
type BunMemberRepository struct {
	repo repository.Repository[*FamilyMember]
}

func NewBunMemberRepository(db *bun.DB) *BunMemberRepository {
	return &BunMemberRepository{repo: NewFamilyMemberRecordRepository(db)}
}

func (r *BunMemberRepository) Create(ctx context.Context, record *FamilyMember) (*FamilyMember, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}
	return created, nil
}

func (r *BunMemberRepository) Get(ctx context.Context, familyID, userID uuid.UUID) (*FamilyMember, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.family_id = ?", familyID).
				Where("?TableAlias.user_id = ?", userID)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "family member", userID.String())
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "family member", Key: userID.String()}
	}
	return records[0], nil
}

func (r *BunMemberRepository) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]*FamilyMember, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.family_id = ?", familyID).
				OrderExpr("?TableAlias.joined_at ASC")
		}),
	)
	return records, err
}

func (r *BunMemberRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*FamilyMember, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.user_id = ?", userID).
				OrderExpr("?TableAlias.joined_at ASC")
		}),
	)
	return records, err
}

func (r *BunMemberRepository) Update(ctx context.Context, record *FamilyMember) (*FamilyMember, error) {
	updated, err := r.repo.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// BunInvitationRepository implements InvitationRepository over Bun.
type BunInvitationRepository struct {
	repo repository.Repository[*FamilyInvitation]
}

func NewBunInvitationRepository(db *bun.DB) *BunInvitationRepository {
	return &BunInvitationRepository{repo: NewFamilyInvitationRecordRepository(db)}
}

func (r *BunInvitationRepository) Create(ctx context.Context, record *FamilyInvitation) (*FamilyInvitation, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BunInvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*FamilyInvitation, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "invitation", id.String())
	}
	return record, nil
}

func (r *BunInvitationRepository) GetByCode(ctx context.Context, code string) (*FamilyInvitation, error) {
	record, err := r.repo.GetByIdentifier(ctx, code)
	if err != nil {
		return nil, mapRepositoryError(err, "invitation", code)
	}
	return record, nil
}

func (r *BunInvitationRepository) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]*FamilyInvitation, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.family_id = ?", familyID).
				OrderExpr("?TableAlias.created_at DESC")
		}),
	)
	return records, err
}

func (r *BunInvitationRepository) Update(ctx context.Context, record *FamilyInvitation) (*FamilyInvitation, error) {
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

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
