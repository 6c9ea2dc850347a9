package children

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-nestsync/internal/audit"
	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/pkg/activity"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	nsusers "github.com/goliatone/go-nestsync/users"
	"github.com/google/uuid"
)

// ChildRepository abstracts storage operations for child profiles.
type ChildRepository interface {
	Create(ctx context.Context, record *Child) (*Child, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Child, error)
	ListByFamily(ctx context.Context, familyID uuid.UUID) ([]*Child, error)
	Update(ctx context.Context, record *Child) (*Child, error)
}

// ConsentChecker gates child-data writes on the acting user's consent ledger.
type ConsentChecker interface {
	HasConsent(ctx context.Context, userID uuid.UUID, consentType nsusers.ConsentType) (bool, error)
}

// AccessPolicy decides whether an actor may write family-scoped records.
type AccessPolicy interface {
	CanWrite(ctx context.Context, familyID, userID uuid.UUID) error
}

// DeleteHook runs after a child is soft deleted so inventory and usage
// history can cascade.
type DeleteHook func(ctx context.Context, childID uuid.UUID) error

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		s.now = clock
	}
}

type IDGenerator func() uuid.UUID

func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithLogger attaches a logger used for structured diagnostics.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConsentChecker wires the consent gate for child-data writes.
func WithConsentChecker(checker ConsentChecker) ServiceOption {
	return func(s *service) {
		s.consents = checker
	}
}

// WithAccessPolicy wires the family membership policy for writes.
func WithAccessPolicy(policy AccessPolicy) ServiceOption {
	return func(s *service) {
		s.policy = policy
	}
}

// WithAuditRecorder wires the recorder used for size transitions.
func WithAuditRecorder(recorder audit.Recorder) ServiceOption {
	return func(s *service) {
		s.audit = recorder
	}
}

// WithActivityEmitter attaches the activity emitter for profile events.
func WithActivityEmitter(emitter *activity.Emitter) ServiceOption {
	return func(s *service) {
		s.activity = emitter
	}
}

// WithDeleteHook registers a cascade to run after a child is soft deleted.
func WithDeleteHook(hook DeleteHook) ServiceOption {
	return func(s *service) {
		if hook != nil {
			s.onDelete = append(s.onDelete, hook)
		}
	}
}

// service implements Service.
type service struct {
	children ChildRepository
	consents ConsentChecker
	policy   AccessPolicy
	audit    audit.Recorder
	activity *activity.Emitter
	now      func() time.Time
	id       IDGenerator
	logger   interfaces.Logger
	onDelete []DeleteHook
}

// NewService constructs a child profile service.
func NewService(children ChildRepository, opts ...ServiceOption) Service {
	s := &service{
		children: children,
		now:      time.Now,
		id:       uuid.New,
		logger:   logging.NoOp(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create adds a child profile. The current size defaults to what the size
// table expects for the birth date when not supplied.
func (s *service) Create(ctx context.Context, req CreateChildRequest) (*Child, error) {
	if req.FamilyID == uuid.Nil {
		return nil, ErrFamilyIDRequired
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if req.BirthDate.IsZero() {
		return nil, ErrBirthDateRequired
	}

	now := s.now()
	if req.BirthDate.After(now) {
		return nil, ErrBirthDateInFuture
	}
	if req.CurrentSize != "" && !req.CurrentSize.Valid() {
		return nil, ErrSizeInvalid
	}

	dailyUsage := req.DailyUsage
	if dailyUsage == 0 {
		dailyUsage = DefaultDailyUsage
	}
	if dailyUsage < 1 || dailyUsage > 24 {
		return nil, ErrDailyUsageInvalid
	}
	if req.WeightKg != nil && *req.WeightKg <= 0 {
		return nil, ErrWeightInvalid
	}

	if err := s.authorizeWrite(ctx, req.FamilyID, req.CreatedBy); err != nil {
		return nil, err
	}

	record := &Child{
		ID:          s.id(),
		FamilyID:    req.FamilyID,
		Name:        name,
		BirthDate:   req.BirthDate,
		CurrentSize: req.CurrentSize,
		DailyUsage:  dailyUsage,
		WeightKg:    req.WeightKg,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if record.CurrentSize == "" {
		record.CurrentSize = sizeForAge(record.AgeInMonths(now))
		if record.WeightKg != nil {
			if byWeight := sizeForWeight(*record.WeightKg); byWeight.Index() > record.CurrentSize.Index() {
				record.CurrentSize = byWeight
			}
		}
	}

	created, err := s.children.Create(ctx, record)
	if err != nil {
		return nil, err
	}

	s.activity.Emit(ctx, activity.Event{
		Verb:       "create",
		ActorID:    req.CreatedBy.String(),
		TenantID:   created.FamilyID.String(),
		ObjectType: "child",
		ObjectID:   created.ID.String(),
		Metadata:   map[string]any{"current_size": string(created.CurrentSize)},
	})
	s.logger.Info("child created", "child_id", created.ID.String(), "family_id", created.FamilyID.String())
	return created, nil
}

// Get fetches a child profile by identifier.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*Child, error) {
	if id == uuid.Nil {
		return nil, ErrChildIDRequired
	}
	record, err := s.children.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.DeletedAt != nil {
		return nil, &NotFoundError{Resource: "child", Key: id.String()}
	}
	return record, nil
}

// List returns the family's child profiles ordered by creation.
func (s *service) List(ctx context.Context, familyID uuid.UUID) ([]*Child, error) {
	if familyID == uuid.Nil {
		return nil, ErrFamilyIDRequired
	}
	records, err := s.children.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}

	out := make([]*Child, 0, len(records))
	for _, record := range records {
		if record.DeletedAt == nil {
			out = append(out, record)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Update applies profile changes. Size transitions are written to the audit
// trail; inventory purchased under the old size stays untouched.
func (s *service) Update(ctx context.Context, req UpdateChildRequest) (*Child, error) {
	record, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(ctx, record.FamilyID, req.UpdatedBy); err != nil {
		return nil, err
	}

	previousSize := record.CurrentSize
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		record.Name = name
	}
	if req.CurrentSize != nil {
		if !req.CurrentSize.Valid() {
			return nil, ErrSizeInvalid
		}
		record.CurrentSize = *req.CurrentSize
	}
	if req.DailyUsage != nil {
		if *req.DailyUsage < 1 || *req.DailyUsage > 24 {
			return nil, ErrDailyUsageInvalid
		}
		record.DailyUsage = *req.DailyUsage
	}
	if req.WeightKg != nil {
		if *req.WeightKg <= 0 {
			return nil, ErrWeightInvalid
		}
		record.WeightKg = req.WeightKg
	}
	if req.Notes != nil {
		record.Notes = req.Notes
	}

	now := s.now()
	record.UpdatedAt = now
	updated, err := s.children.Update(ctx, record)
	if err != nil {
		return nil, err
	}

	if updated.CurrentSize != previousSize {
		s.recordAudit(ctx, audit.Event{
			EntityType: "child",
			EntityID:   updated.ID.String(),
			Action:     "size_change",
			ActorID:    req.UpdatedBy.String(),
			OccurredAt: now,
			Metadata: map[string]any{
				"from": string(previousSize),
				"to":   string(updated.CurrentSize),
			},
		})
	}

	s.activity.Emit(ctx, activity.Event{
		Verb:       "update",
		ActorID:    req.UpdatedBy.String(),
		TenantID:   updated.FamilyID.String(),
		ObjectType: "child",
		ObjectID:   updated.ID.String(),
		Metadata:   map[string]any{"current_size": string(updated.CurrentSize)},
	})
	return updated, nil
}

// Delete soft deletes the profile and runs registered cascades over inventory
// and usage history.
func (s *service) Delete(ctx context.Context, req DeleteChildRequest) error {
	record, err := s.Get(ctx, req.ID)
	if err != nil {
		return err
	}
	if err := s.authorizeWrite(ctx, record.FamilyID, req.DeletedBy); err != nil {
		return err
	}

	now := s.now()
	record.DeletedAt = &now
	record.UpdatedAt = now
	if _, err := s.children.Update(ctx, record); err != nil {
		return err
	}

	for _, hook := range s.onDelete {
		if err := hook(ctx, record.ID); err != nil {
			s.logger.Error("child delete cascade failed", "child_id", record.ID.String(), "error", err)
		}
	}

	s.activity.Emit(ctx, activity.Event{
		Verb:       "delete",
		ActorID:    req.DeletedBy.String(),
		TenantID:   record.FamilyID.String(),
		ObjectType: "child",
		ObjectID:   record.ID.String(),
	})
	s.logger.Info("child deleted", "child_id", record.ID.String())
	return nil
}

// SizeAdvisory reports whether the child should move to the next size.
func (s *service) SizeAdvisory(ctx context.Context, childID uuid.UUID) (*SizeAdvisory, error) {
	record, err := s.Get(ctx, childID)
	if err != nil {
		return nil, err
	}
	return buildAdvisory(record, s.now()), nil
}

func (s *service) authorizeWrite(ctx context.Context, familyID, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrUserIDRequired
	}
	if s.policy != nil {
		if err := s.policy.CanWrite(ctx, familyID, userID); err != nil {
			return err
		}
	}
	if s.consents != nil {
		granted, err := s.consents.HasConsent(ctx, userID, nsusers.ConsentChildData)
		if err != nil {
			return err
		}
		if !granted {
			return &nsusers.ConsentRequiredError{Type: nsusers.ConsentChildData}
		}
	}
	return nil
}

func (s *service) recordAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, event)
}
