package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-nestsync/billing"
	"github.com/goliatone/go-nestsync/children"
	"github.com/goliatone/go-nestsync/families"
	"github.com/goliatone/go-nestsync/internal/permissions"
	"github.com/goliatone/go-nestsync/internal/validation"
	"github.com/goliatone/go-nestsync/inventory"
	"github.com/goliatone/go-nestsync/notifications"
	"github.com/goliatone/go-nestsync/users"
	"github.com/google/uuid"
)

type errorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message,omitempty"`
	Issues  []validation.ValidationIssue `json:"issues,omitempty"`
}

func joinPath(base, suffix string) string {
	trimmedBase := strings.TrimSpace(base)
	trimmedSuffix := strings.TrimSpace(suffix)
	if trimmedBase == "" {
		if trimmedSuffix == "" {
			return "/"
		}
		return "/" + strings.Trim(trimmedSuffix, "/")
	}
	baseClean := "/" + strings.Trim(trimmedBase, "/")
	if trimmedSuffix == "" {
		return baseClean
	}
	return baseClean + "/" + strings.Trim(trimmedSuffix, "/")
}

func decodeJSON(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(target); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	var userNotFound *users.NotFoundError
	var familyNotFound *families.NotFoundError
	var childNotFound *children.NotFoundError
	var itemNotFound *inventory.NotFoundError
	var noticeNotFound *notifications.NotFoundError
	var billingNotFound *billing.NotFoundError
	if errors.As(err, &userNotFound) ||
		errors.As(err, &familyNotFound) ||
		errors.As(err, &childNotFound) ||
		errors.As(err, &itemNotFound) ||
		errors.As(err, &noticeNotFound) ||
		errors.As(err, &billingNotFound) ||
		errors.Is(err, families.ErrMemberNotFound) ||
		errors.Is(err, families.ErrInvitationNotFound) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: err.Error(),
		}
	}

	var consentRequired *users.ConsentRequiredError
	if errors.As(err, &consentRequired) {
		return http.StatusForbidden, errorResponse{
			Error:   "consent_required",
			Message: consentRequired.Error(),
		}
	}

	if errors.Is(err, permissions.ErrPermissionDenied) {
		return http.StatusForbidden, errorResponse{
			Error:   "forbidden",
			Message: err.Error(),
		}
	}

	if errors.Is(err, billing.ErrInvalidSignature) {
		return http.StatusUnauthorized, errorResponse{
			Error:   "invalid_signature",
			Message: err.Error(),
		}
	}

	if errors.Is(err, billing.ErrBillingDisabled) {
		return http.StatusServiceUnavailable, errorResponse{
			Error:   "billing_disabled",
			Message: err.Error(),
		}
	}

	if errors.Is(err, users.ErrEmailTaken) ||
		errors.Is(err, families.ErrSlugTaken) ||
		errors.Is(err, families.ErrAlreadyMember) ||
		errors.Is(err, families.ErrLastOwner) ||
		errors.Is(err, families.ErrSelfRemovalForbidden) ||
		errors.Is(err, families.ErrInvitationUsed) ||
		errors.Is(err, families.ErrInvitationRevoked) ||
		errors.Is(err, families.ErrInvitationExpired) ||
		errors.Is(err, families.ErrInvitationNotExpired) ||
		errors.Is(err, billing.ErrSubscriptionExists) ||
		errors.Is(err, billing.ErrPlanInactive) ||
		errors.Is(err, billing.ErrTrialNotExpired) ||
		errors.Is(err, notifications.ErrAlreadyDispatched) {
		return http.StatusConflict, errorResponse{
			Error:   "conflict",
			Message: err.Error(),
		}
	}

	if errors.Is(err, validation.ErrSchemaValidation) || errors.Is(err, validation.ErrSchemaInvalid) {
		return http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
			Issues:  validation.Issues(err),
		}
	}

	if isBadRequest(err) {
		return http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		}
	}

	return http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	}
}

// isBadRequest matches the sentinel errors the feature services return for
// malformed input.
func isBadRequest(err error) bool {
	badRequest := []error{
		users.ErrUserIDRequired,
		users.ErrEmailRequired,
		users.ErrEmailInvalid,
		users.ErrDisplayNameRequired,
		users.ErrTimezoneInvalid,
		users.ErrProvinceInvalid,
		users.ErrConsentTypeInvalid,
		users.ErrConsentVersionRequired,
		users.ErrConsentRequired,
		families.ErrFamilyIDRequired,
		families.ErrUserIDRequired,
		families.ErrNameRequired,
		families.ErrSlugInvalid,
		families.ErrCreatorRequired,
		families.ErrRoleInvalid,
		families.ErrInviteeEmailInvalid,
		children.ErrChildIDRequired,
		children.ErrFamilyIDRequired,
		children.ErrUserIDRequired,
		children.ErrNameRequired,
		children.ErrBirthDateRequired,
		children.ErrBirthDateInFuture,
		children.ErrDailyUsageInvalid,
		children.ErrSizeInvalid,
		children.ErrWeightInvalid,
		inventory.ErrItemIDRequired,
		inventory.ErrChildIDRequired,
		inventory.ErrBrandRequired,
		inventory.ErrSizeInvalid,
		inventory.ErrQuantityInvalid,
		inventory.ErrQuantityExceeded,
		inventory.ErrCostInvalid,
		inventory.ErrUsageIDRequired,
		inventory.ErrUsageKindInvalid,
		inventory.ErrOccurredInFuture,
		inventory.ErrPurchasedInFuture,
		inventory.ErrLoggedByRequired,
		inventory.ErrActorRequired,
		notifications.ErrNotificationIDRequired,
		notifications.ErrUserIDRequired,
		notifications.ErrFamilyIDRequired,
		notifications.ErrTypeInvalid,
		notifications.ErrTitleRequired,
		notifications.ErrChannelInvalid,
		notifications.ErrQuietHoursInvalid,
		notifications.ErrThresholdInvalid,
		notifications.ErrDigestInvalid,
		billing.ErrFamilyIDRequired,
		billing.ErrSubscriptionIDRequired,
		billing.ErrActorRequired,
		billing.ErrPlanCodeRequired,
		billing.ErrPayloadRequired,
		billing.ErrEventIDRequired,
	}
	for _, sentinel := range badRequest {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func parseUUID(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.Nil, errors.New("uuid required")
	}
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, err
	}
	return parsed, nil
}

func parseBoolQuery(value string, defaultValue bool) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseIntQuery(value string, defaultValue int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseTimeQuery(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, err
	}
	return parsed, nil
}

// Field extractors for schema-validated payloads. decodeJSON uses UseNumber,
// so numeric fields arrive as json.Number.

func stringField(payload map[string]any, key string) string {
	value, ok := payload[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func boolField(payload map[string]any, key string) bool {
	value, ok := payload[key].(bool)
	if !ok {
		return false
	}
	return value
}

func mapField(payload map[string]any, key string) map[string]any {
	value, ok := payload[key].(map[string]any)
	if !ok {
		return nil
	}
	return value
}

func intField(payload map[string]any, key string) (int, bool) {
	number, ok := payload[key].(json.Number)
	if !ok {
		return 0, false
	}
	parsed, err := number.Int64()
	if err != nil {
		return 0, false
	}
	return int(parsed), true
}

func timeField(payload map[string]any, key string) (time.Time, bool) {
	value, ok := payload[key].(string)
	if !ok {
		return time.Time{}, false
	}
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// requireFamilyPermission gates family-scoped reads on the permission checker
// the auth middleware installed. Writes go through the services, which resolve
// membership rows themselves.
func requireFamilyPermission(w http.ResponseWriter, r *http.Request, familyID uuid.UUID, permission string) bool {
	if strings.TrimSpace(permission) == "" {
		return true
	}
	if r == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "request missing"})
		return false
	}
	ctx := r.Context()
	if familyID != uuid.Nil {
		ctx = permissions.WithFamilyKey(ctx, familyID.String())
	}
	if err := permissions.Require(ctx, permission); err != nil {
		writeError(w, err)
		return false
	}
	return true
}
