package users

import (
	"errors"
	"fmt"
)

var (
	ErrUserIDRequired         = errors.New("users: user id required")
	ErrEmailRequired          = errors.New("users: email is required")
	ErrEmailInvalid           = errors.New("users: email is invalid")
	ErrEmailTaken             = errors.New("users: email already registered")
	ErrDisplayNameRequired    = errors.New("users: display name is required")
	ErrTimezoneInvalid        = errors.New("users: timezone is invalid")
	ErrProvinceInvalid        = errors.New("users: province is invalid")
	ErrUserDeleted            = errors.New("users: user is deleted")
	ErrConsentRequired        = errors.New("users: required consent not granted")
	ErrConsentTypeInvalid     = errors.New("users: consent type is invalid")
	ErrConsentVersionRequired = errors.New("users: consent version is required")
)

// NotFoundError represents missing records from user lookups.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// ConsentRequiredError reports which consent type blocked an operation.
type ConsentRequiredError struct {
	Type ConsentType
}

func (e *ConsentRequiredError) Error() string {
	if e == nil || e.Type == "" {
		return ErrConsentRequired.Error()
	}
	return fmt.Sprintf("%s: %s", ErrConsentRequired.Error(), e.Type)
}

func (e *ConsentRequiredError) Unwrap() error {
	return ErrConsentRequired
}
