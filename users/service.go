package users

import (
	"context"

	"github.com/goliatone/go-nestsync/domain"
	"github.com/google/uuid"
)

// Service exposes account and consent-ledger use cases.
type Service interface {
	Register(ctx context.Context, req RegisterUserRequest) (*User, error)
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, req UpdateUserRequest) (*User, error)
	Delete(ctx context.Context, req DeleteUserRequest) error
	RecordConsent(ctx context.Context, req RecordConsentRequest) (*ConsentRecord, error)
	ConsentStatus(ctx context.Context, userID uuid.UUID) (map[ConsentType]*ConsentRecord, error)
	HasConsent(ctx context.Context, userID uuid.UUID, consentType ConsentType) (bool, error)
}

// RegisterUserRequest captures the information required to create an account.
// ID is optional; the auth provider's subject UUID is used when supplied.
type RegisterUserRequest struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	Timezone    string
	Province    domain.Province
	Method      string
	Consents    []ConsentInput
	Metadata    map[string]any
}

// ConsentInput represents one consent decision supplied during registration.
type ConsentInput struct {
	Type    ConsentType
	Version string
	Granted bool
}

// UpdateUserRequest captures mutable profile fields. Nil pointers leave the
// stored value untouched.
type UpdateUserRequest struct {
	ID          uuid.UUID
	DisplayName *string
	Timezone    *string
	Province    *domain.Province
	Onboarded   *bool
}

// DeleteUserRequest captures the information required to soft delete a user.
type DeleteUserRequest struct {
	ID        uuid.UUID
	DeletedBy uuid.UUID
	Reason    string
}

// RecordConsentRequest appends one record to the consent ledger.
type RecordConsentRequest struct {
	UserID   uuid.UUID
	Type     ConsentType
	Version  string
	Granted  bool
	Method   string
	Metadata map[string]any
}
