package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunPreferenceRepository implements PreferenceRepository over Bun.
type BunPreferenceRepository struct {
	repo repository.Repository[*NotificationPreference]
}

func NewBunPreferenceRepository(db *bun.DB) *BunPreferenceRepository {
	return &BunPreferenceRepository{repo: NewPreferenceRecordRepository(db)}
}

func (r *BunPreferenceRepository) Create(ctx context.Context, record *NotificationPreference) (*NotificationPreference, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errPreferenceExists
		}
		return nil, err
	}
	return created, nil
}

func (r *BunPreferenceRepository) GetByUserFamily(ctx context.Context, userID, familyID uuid.UUID) (*NotificationPreference, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.user_id = ?", userID).
				Where("?TableAlias.family_id = ?", familyID).
				Limit(1)
		}),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "notification preference", Key: userID.String()}
	}
	return records[0], nil
}

func (r *BunPreferenceRepository) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]*NotificationPreference, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.family_id = ?", familyID)
		}),
	)
	return records, err
}

func (r *BunPreferenceRepository) Update(ctx context.Context, record *NotificationPreference) (*NotificationPreference, error) {
	updated, err := r.repo.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// BunNotificationRepository implements NotificationRepository over Bun.
type BunNotificationRepository struct {
	repo repository.Repository[*Notification]
}

func NewBunNotificationRepository(db *bun.DB) *BunNotificationRepository {
	return &BunNotificationRepository{repo: NewNotificationRecordRepository(db)}
}

func (r *BunNotificationRepository) Create(ctx context.Context, record *Notification) (*Notification, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BunNotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "notification", id.String())
	}
	return record, nil
}

func (r *BunNotificationRepository) ListByUser(ctx context.Context, req ListNotificationsRequest) ([]*Notification, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.user_id = ?", req.UserID)
			if req.FamilyID != nil {
				q = q.Where("?TableAlias.family_id = ?", *req.FamilyID)
			}
			if req.Status != "" {
				q = q.Where("?TableAlias.status = ?", req.Status)
			}
			if req.UnreadOnly {
				q = q.Where("?TableAlias.read_at IS NULL")
			}
			return q.OrderExpr("?TableAlias.created_at DESC").Limit(req.Limit)
		}),
	)
	return records, err
}

func (r *BunNotificationRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*Notification, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.status = ?", StatusPending).
				Where("?TableAlias.scheduled_for <= ?", now).
				Where("?TableAlias.attempts < ?", MaxDispatchAttempts).
				OrderExpr("?TableAlias.scheduled_for ASC").
				Limit(limit)
		}),
	)
	return records, err
}

func (r *BunNotificationRepository) Update(ctx context.Context, record *Notification) (*Notification, error) {
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
