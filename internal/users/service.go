package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	nsusers "github.com/goliatone/go-nestsync/users"
	"github.com/google/uuid"
)

const defaultTimezone = "America/Toronto"

// UserRepository abstracts storage operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, record *User) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, record *User) (*User, error)
}

// ConsentRepository abstracts the append-only consent ledger. There is no
// update or delete; withdrawal appends a Granted=false record.
type ConsentRepository interface {
	Append(ctx context.Context, record *ConsentRecord) (*ConsentRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*ConsentRecord, error)
}

// DeleteHook runs after a user is soft deleted so other features can cascade
// (membership deactivation, subscription cancelation).
type DeleteHook func(ctx context.Context, userID uuid.UUID) error

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

// WithDeleteHook registers a cascade to run after a user is soft deleted.
func WithDeleteHook(hook DeleteHook) ServiceOption {
	return func(s *service) {
		if hook != nil {
			s.onDelete = append(s.onDelete, hook)
		}
	}
}

// service implements Service.
type service struct {
	users    UserRepository
	consents ConsentRepository
	now      func() time.Time
	id       IDGenerator
	logger   interfaces.Logger
	onDelete []DeleteHook
}

// NewService constructs a user service with the required dependencies.
func NewService(users UserRepository, consents ConsentRepository, opts ...ServiceOption) Service {
	s := &service{
		users:    users,
		consents: consents,
		now:      time.Now,
		id:       uuid.New,
		logger:   logging.NoOp(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Register creates a user together with the initial consent ledger entries.
func (s *service) Register(ctx context.Context, req RegisterUserRequest) (*User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		return nil, ErrDisplayNameRequired
	}

	timezone := strings.TrimSpace(req.Timezone)
	if timezone == "" {
		timezone = defaultTimezone
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, ErrTimezoneInvalid
	}

	if req.Province != "" && !req.Province.Valid() {
		return nil, ErrProvinceInvalid
	}

	for _, consent := range req.Consents {
		if !consent.Type.Valid() {
			return nil, ErrConsentTypeInvalid
		}
		if strings.TrimSpace(consent.Version) == "" {
			return nil, ErrConsentVersionRequired
		}
	}
	for _, required := range nsusers.RequiredConsents() {
		if !consentGranted(req.Consents, required) {
			return nil, &ConsentRequiredError{Type: required}
		}
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil {
		var notFound *NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	now := s.now()
	id := req.ID
	if id == uuid.Nil {
		id = s.id()
	}

	record := &User{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		Timezone:    timezone,
		Province:    req.Province,
		Status:      nsusers.UserStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.users.Create(ctx, record)
	if err != nil {
		return nil, err
	}

	method := strings.TrimSpace(req.Method)
	if method == "" {
		method = nsusers.ConsentMethodSignup
	}

	for _, consent := range req.Consents {
		entry := &ConsentRecord{
			ID:         s.id(),
			UserID:     created.ID,
			Type:       consent.Type,
			Version:    consent.Version,
			Granted:    consent.Granted,
			Method:     method,
			Metadata:   req.Metadata,
			RecordedAt: now,
		}
		stored, err := s.consents.Append(ctx, entry)
		if err != nil {
			return nil, err
		}
		created.Consents = append(created.Consents, stored)
	}

	s.logger.Info("user registered", "user_id", created.ID.String())
	return created, nil
}

// Get fetches an active user by identifier.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	if id == uuid.Nil {
		return nil, ErrUserIDRequired
	}
	record, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.DeletedAt != nil {
		return nil, &NotFoundError{Resource: "user", Key: id.String()}
	}
	return record, nil
}

// GetByEmail fetches an active user by normalized email.
func (s *service) GetByEmail(ctx context.Context, email string) (*User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	record, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if record.DeletedAt != nil {
		return nil, &NotFoundError{Resource: "user", Key: normalized}
	}
	return record, nil
}

// Update applies profile changes. Email and status are not mutable here.
func (s *service) Update(ctx context.Context, req UpdateUserRequest) (*User, error) {
	record, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			return nil, ErrDisplayNameRequired
		}
		record.DisplayName = name
	}
	if req.Timezone != nil {
		timezone := strings.TrimSpace(*req.Timezone)
		if _, err := time.LoadLocation(timezone); err != nil || timezone == "" {
			return nil, ErrTimezoneInvalid
		}
		record.Timezone = timezone
	}
	if req.Province != nil {
		if *req.Province != "" && !req.Province.Valid() {
			return nil, ErrProvinceInvalid
		}
		record.Province = *req.Province
	}
	if req.Onboarded != nil {
		record.Onboarded = *req.Onboarded
	}

	record.UpdatedAt = s.now()
	return s.users.Update(ctx, record)
}

// Delete soft deletes the user and runs registered cascades. The consent
// ledger is retained for compliance.
func (s *service) Delete(ctx context.Context, req DeleteUserRequest) error {
	record, err := s.Get(ctx, req.ID)
	if err != nil {
		return err
	}

	now := s.now()
	record.Status = nsusers.UserStatusDeleted
	record.DeletedAt = &now
	record.UpdatedAt = now
	if _, err := s.users.Update(ctx, record); err != nil {
		return err
	}

	for _, hook := range s.onDelete {
		if err := hook(ctx, record.ID); err != nil {
			s.logger.Error("user delete cascade failed", "user_id", record.ID.String(), "error", err)
		}
	}

	s.logger.Info("user deleted", "user_id", record.ID.String())
	return nil
}

// RecordConsent appends one ledger entry. Prior records are never touched.
func (s *service) RecordConsent(ctx context.Context, req RecordConsentRequest) (*ConsentRecord, error) {
	if _, err := s.Get(ctx, req.UserID); err != nil {
		return nil, err
	}
	if !req.Type.Valid() {
		return nil, ErrConsentTypeInvalid
	}
	if strings.TrimSpace(req.Version) == "" {
		return nil, ErrConsentVersionRequired
	}

	method := strings.TrimSpace(req.Method)
	if method == "" {
		method = nsusers.ConsentMethodAPI
	}

	entry := &ConsentRecord{
		ID:         s.id(),
		UserID:     req.UserID,
		Type:       req.Type,
		Version:    req.Version,
		Granted:    req.Granted,
		Method:     method,
		Metadata:   req.Metadata,
		RecordedAt: s.now(),
	}
	return s.consents.Append(ctx, entry)
}

// ConsentStatus returns the latest ledger entry per consent type.
func (s *service) ConsentStatus(ctx context.Context, userID uuid.UUID) (map[ConsentType]*ConsentRecord, error) {
	if userID == uuid.Nil {
		return nil, ErrUserIDRequired
	}
	records, err := s.consents.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	latest := make(map[ConsentType]*ConsentRecord, len(records))
	for _, record := range records {
		current, ok := latest[record.Type]
		if !ok || record.RecordedAt.After(current.RecordedAt) {
			latest[record.Type] = record
		}
	}
	return latest, nil
}

// HasConsent reports whether the latest record for the type grants consent
// and has not expired.
func (s *service) HasConsent(ctx context.Context, userID uuid.UUID, consentType ConsentType) (bool, error) {
	if !consentType.Valid() {
		return false, ErrConsentTypeInvalid
	}
	status, err := s.ConsentStatus(ctx, userID)
	if err != nil {
		return false, err
	}
	record, ok := status[consentType]
	if !ok {
		return false, nil
	}
	return record.Active(s.now()), nil
}

func consentGranted(inputs []ConsentInput, consentType ConsentType) bool {
	for _, input := range inputs {
		if input.Type == consentType && input.Granted {
			return true
		}
	}
	return false
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrEmailRequired
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrEmailInvalid
	}
	return normalized, nil
}
