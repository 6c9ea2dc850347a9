package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-nestsync/domain"
	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/pkg/activity"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	nsusers "github.com/goliatone/go-nestsync/users"
	"github.com/google/uuid"
)

const defaultDispatchBatch = 50
const defaultListLimit = 50

// errPreferenceExists signals a lost create race on the (user, family)
// preference row. Callers re-read instead of failing.
var errPreferenceExists = errors.New("notifications: preference row already exists")

// PreferenceRepository persists per-user delivery settings.
type PreferenceRepository interface {
	Create(ctx context.Context, record *NotificationPreference) (*NotificationPreference, error)
	GetByUserFamily(ctx context.Context, userID, familyID uuid.UUID) (*NotificationPreference, error)
	ListByFamily(ctx context.Context, familyID uuid.UUID) ([]*NotificationPreference, error)
	Update(ctx context.Context, record *NotificationPreference) (*NotificationPreference, error)
}

// NotificationRepository persists queued notification records.
type NotificationRepository interface {
	Create(ctx context.Context, record *Notification) (*Notification, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	ListByUser(ctx context.Context, req ListNotificationsRequest) ([]*Notification, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Notification, error)
	Update(ctx context.Context, record *Notification) (*Notification, error)
}

// UserDirectory resolves recipients for quiet hours and email delivery.
type UserDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*nsusers.User, error)
}

// ConsentChecker gates marketing opt-in on the acting user's consent ledger.
type ConsentChecker interface {
	HasConsent(ctx context.Context, userID uuid.UUID, consentType nsusers.ConsentType) (bool, error)
}

// WebLinker resolves app deep links rendered into notification copy. The
// links builder satisfies it.
type WebLinker interface {
	ChildURL(childID uuid.UUID) (string, error)
	SubscriptionURL() (string, error)
	PreferencesURL() (string, error)
}

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

// WithConsentChecker wires the consent gate for marketing opt-in.
func WithConsentChecker(checker ConsentChecker) ServiceOption {
	return func(s *service) {
		s.consents = checker
	}
}

// WithRenderer overrides the template renderer.
func WithRenderer(renderer *Renderer) ServiceOption {
	return func(s *service) {
		if renderer != nil {
			s.renderer = renderer
		}
	}
}

// WithChannelSender registers the delivery path for one channel. Channels
// without a sender degrade to the stored in-app record at dispatch time.
func WithChannelSender(channel domain.Channel, sender ChannelSender) ServiceOption {
	return func(s *service) {
		if sender != nil {
			s.senders[channel] = sender
		}
	}
}

// WithActivityEmitter attaches the activity emitter for preference events.
func WithActivityEmitter(emitter *activity.Emitter) ServiceOption {
	return func(s *service) {
		s.activity = emitter
	}
}

// WithWebLinker wires the link builder that decorates notification payloads
// with app deep links. Without it the copy stays text only.
func WithWebLinker(linker WebLinker) ServiceOption {
	return func(s *service) {
		s.linker = linker
	}
}

// service implements Service.
type service struct {
	prefs    PreferenceRepository
	store    NotificationRepository
	users    UserDirectory
	consents ConsentChecker
	senders  map[domain.Channel]ChannelSender
	renderer *Renderer
	activity *activity.Emitter
	linker   WebLinker
	now      func() time.Time
	id       IDGenerator
	logger   interfaces.Logger
}

// NewService constructs a notification service.
func NewService(prefs PreferenceRepository, store NotificationRepository, users UserDirectory, opts ...ServiceOption) Service {
	s := &service{
		prefs:    prefs,
		store:    store,
		users:    users,
		senders:  map[domain.Channel]ChannelSender{},
		renderer: MustNewRenderer(),
		now:      time.Now,
		id:       uuid.New,
		logger:   logging.NoOp(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Preferences returns the stored settings for the pair, creating the default
// row on first read.
func (s *service) Preferences(ctx context.Context, userID, familyID uuid.UUID) (*NotificationPreference, error) {
	if userID == uuid.Nil {
		return nil, ErrUserIDRequired
	}
	if familyID == uuid.Nil {
		return nil, ErrFamilyIDRequired
	}
	return s.loadOrCreate(ctx, userID, familyID)
}

func (s *service) loadOrCreate(ctx context.Context, userID, familyID uuid.UUID) (*NotificationPreference, error) {
	record, err := s.prefs.GetByUserFamily(ctx, userID, familyID)
	if err == nil {
		return record, nil
	}
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}

	created, err := s.prefs.Create(ctx, s.defaultPreference(userID, familyID))
	if err != nil {
		if errors.Is(err, errPreferenceExists) {
			return s.prefs.GetByUserFamily(ctx, userID, familyID)
		}
		return nil, err
	}
	return created, nil
}

func (s *service) defaultPreference(userID, familyID uuid.UUID) *NotificationPreference {
	now := s.now().UTC()
	return &NotificationPreference{
		ID:                    s.id(),
		UserID:                userID,
		FamilyID:              familyID,
		Channels:              []domain.Channel{domain.ChannelInApp, domain.ChannelEmail},
		LowStockThresholdDays: DefaultLowStockThresholdDays,
		SizeChangeAlerts:      true,
		Digest:                DigestImmediate,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// UpdatePreferences applies the non-nil fields of the request.
func (s *service) UpdatePreferences(ctx context.Context, req UpdatePreferencesRequest) (*NotificationPreference, error) {
	if req.UserID == uuid.Nil {
		return nil, ErrUserIDRequired
	}
	if req.FamilyID == uuid.Nil {
		return nil, ErrFamilyIDRequired
	}

	channels, err := normalizeChannels(req.Channels)
	if err != nil {
		return nil, err
	}
	if err := validateQuietHour(req.QuietHoursStart); err != nil {
		return nil, err
	}
	if err := validateQuietHour(req.QuietHoursEnd); err != nil {
		return nil, err
	}
	if req.LowStockThresholdDays != nil {
		if *req.LowStockThresholdDays < 1 || *req.LowStockThresholdDays > 30 {
			return nil, ErrThresholdInvalid
		}
	}
	if req.Digest != nil && *req.Digest != DigestImmediate && *req.Digest != DigestDaily {
		return nil, ErrDigestInvalid
	}
	if req.MarketingOptIn != nil && *req.MarketingOptIn {
		if err := s.requireMarketingConsent(ctx, req.UserID); err != nil {
			return nil, err
		}
	}

	record, err := s.loadOrCreate(ctx, req.UserID, req.FamilyID)
	if err != nil {
		return nil, err
	}

	if channels != nil {
		record.Channels = channels
	}
	if req.QuietHoursStart != nil {
		record.QuietHoursStart = clockValue(req.QuietHoursStart)
	}
	if req.QuietHoursEnd != nil {
		record.QuietHoursEnd = clockValue(req.QuietHoursEnd)
	}
	if req.LowStockThresholdDays != nil {
		record.LowStockThresholdDays = *req.LowStockThresholdDays
	}
	if req.SizeChangeAlerts != nil {
		record.SizeChangeAlerts = *req.SizeChangeAlerts
	}
	if req.MarketingOptIn != nil {
		record.MarketingOptIn = *req.MarketingOptIn
	}
	if req.Digest != nil {
		record.Digest = *req.Digest
	}
	record.UpdatedAt = s.now().UTC()

	updated, err := s.prefs.Update(ctx, record)
	if err != nil {
		return nil, err
	}

	s.activity.Emit(ctx, activity.Event{
		Verb:       "update",
		ActorID:    req.UserID.String(),
		TenantID:   updated.FamilyID.String(),
		ObjectType: "notification_preference",
		ObjectID:   updated.ID.String(),
		Metadata: map[string]any{
			"digest":                   updated.Digest,
			"low_stock_threshold_days": updated.LowStockThresholdDays,
		},
	})
	s.logger.Info("notification preferences updated",
		"user_id", updated.UserID.String(),
		"family_id", updated.FamilyID.String(),
	)
	return updated, nil
}

// normalizeChannels validates and dedupes the requested channel set. A nil
// slice means "leave unchanged" and returns nil.
func normalizeChannels(channels []domain.Channel) ([]domain.Channel, error) {
	if channels == nil {
		return nil, nil
	}
	seen := map[domain.Channel]bool{}
	normalized := make([]domain.Channel, 0, len(channels))
	for _, ch := range channels {
		if !ch.Valid() {
			return nil, ErrChannelInvalid
		}
		if seen[ch] {
			continue
		}
		seen[ch] = true
		normalized = append(normalized, ch)
	}
	return normalized, nil
}

// validateQuietHour accepts nil (unchanged) and empty (clear); anything else
// must parse as HH:MM.
func validateQuietHour(value *string) error {
	if value == nil || *value == "" {
		return nil
	}
	if _, err := parseClockTime(*value); err != nil {
		return ErrQuietHoursInvalid
	}
	return nil
}

// clockValue maps the request pointer to storage: empty clears the column.
func clockValue(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	v := *value
	return &v
}

func (s *service) requireMarketingConsent(ctx context.Context, userID uuid.UUID) error {
	if s.consents == nil {
		return nil
	}
	granted, err := s.consents.HasConsent(ctx, userID, nsusers.ConsentMarketingEmails)
	if err != nil {
		return err
	}
	if !granted {
		return &nsusers.ConsentRequiredError{Type: nsusers.ConsentMarketingEmails}
	}
	return nil
}

// Enqueue queues one record per enabled channel for the recipient. Size
// advisories respect the per-user mute; quiet hours defer ScheduledFor.
func (s *service) Enqueue(ctx context.Context, req EnqueueNotificationRequest) ([]*Notification, error) {
	if req.UserID == uuid.Nil {
		return nil, ErrUserIDRequired
	}
	if req.FamilyID == uuid.Nil {
		return nil, ErrFamilyIDRequired
	}
	if !req.Type.Valid() {
		return nil, ErrTypeInvalid
	}

	prefs, err := s.loadOrCreate(ctx, req.UserID, req.FamilyID)
	if err != nil {
		return nil, err
	}
	if req.Type == TypeSizeAdvisory && !prefs.SizeChangeAlerts {
		s.logger.Debug("size advisory muted by preference", "user_id", req.UserID.String())
		return []*Notification{}, nil
	}

	data := s.withLinks(req.Type, req.Data)

	title, body := req.Title, req.Body
	if title == "" || body == "" {
		renderedTitle, renderedBody, err := s.renderer.Render(req.Type, data)
		if err != nil {
			s.logger.Warn("notification template render failed",
				"type", string(req.Type), "error", err)
		} else {
			if title == "" {
				title = renderedTitle
			}
			if body == "" {
				body = renderedBody
			}
		}
	}
	if title == "" {
		return nil, ErrTitleRequired
	}

	now := s.now().UTC()
	scheduledFor := req.ScheduledFor
	if scheduledFor.IsZero() {
		scheduledFor = now
	}
	scheduledFor = s.applyQuietHours(ctx, req.UserID, prefs, scheduledFor)

	records := make([]*Notification, 0, 3)
	for _, channel := range []domain.Channel{domain.ChannelInApp, domain.ChannelEmail, domain.ChannelPush} {
		if !prefs.ChannelEnabled(channel) {
			continue
		}
		record := &Notification{
			ID:           s.id(),
			UserID:       req.UserID,
			FamilyID:     req.FamilyID,
			Type:         req.Type,
			Channel:      channel,
			Title:        title,
			Body:         body,
			Data:         data,
			Status:       StatusPending,
			ScheduledFor: scheduledFor,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		created, err := s.store.Create(ctx, record)
		if err != nil {
			return nil, err
		}
		records = append(records, created)
	}

	s.activity.Emit(ctx, activity.Event{
		Verb:       "enqueue",
		ActorID:    req.UserID.String(),
		TenantID:   req.FamilyID.String(),
		ObjectType: "notification",
		ObjectID:   records[0].ID.String(),
		Metadata: map[string]any{
			"type":   string(req.Type),
			"fanout": len(records),
		},
	})
	s.logger.Info("notification enqueued",
		"user_id", req.UserID.String(),
		"type", string(req.Type),
		"fanout", len(records),
	)
	return records, nil
}

// withLinks copies the payload and folds in the deep links the templates for
// this type render. Link resolution failures only log; the notification still
// goes out text only.
func (s *service) withLinks(kind NotificationType, data map[string]any) map[string]any {
	if s.linker == nil {
		return data
	}

	extra := map[string]any{}
	switch kind {
	case TypeLowStock, TypeSizeAdvisory:
		raw, _ := data["child_id"].(string)
		childID, err := uuid.Parse(raw)
		if err != nil {
			break
		}
		url, err := s.linker.ChildURL(childID)
		if err != nil {
			s.logger.Warn("child link build failed", "child_id", raw, "error", err)
		} else if url != "" {
			extra["child_url"] = url
		}
	case TypePaymentFailed, TypeTrialEnding, TypeTrialExpired:
		url, err := s.linker.SubscriptionURL()
		if err != nil {
			s.logger.Warn("billing link build failed", "error", err)
		} else if url != "" {
			extra["billing_url"] = url
		}
	}
	if len(extra) == 0 {
		return data
	}

	merged := make(map[string]any, len(data)+len(extra))
	for key, value := range data {
		merged[key] = value
	}
	for key, value := range extra {
		merged[key] = value
	}
	return merged
}

// applyQuietHours defers the instant past the recipient's quiet window,
// interpreted in their profile timezone.
func (s *service) applyQuietHours(ctx context.Context, userID uuid.UUID, prefs *NotificationPreference, at time.Time) time.Time {
	if prefs.QuietHoursStart == nil || prefs.QuietHoursEnd == nil {
		return at
	}

	loc := time.UTC
	if s.users != nil {
		user, err := s.users.Get(ctx, userID)
		if err != nil {
			s.logger.Warn("quiet hours recipient lookup failed",
				"user_id", userID.String(), "error", err)
		} else if user.Timezone != "" {
			parsed, err := time.LoadLocation(user.Timezone)
			if err != nil {
				s.logger.Warn("quiet hours timezone invalid, using UTC",
					"user_id", userID.String(), "timezone", user.Timezone)
			} else {
				loc = parsed
			}
		}
	}

	return deferPastQuietHours(at, *prefs.QuietHoursStart, *prefs.QuietHoursEnd, loc)
}

// List returns the user's feed, newest first.
func (s *service) List(ctx context.Context, req ListNotificationsRequest) ([]*Notification, error) {
	if req.UserID == uuid.Nil {
		return nil, ErrUserIDRequired
	}
	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}
	return s.store.ListByUser(ctx, req)
}

// MarkRead stamps the record as read by its owner. Reading twice is a no-op.
func (s *service) MarkRead(ctx context.Context, req MarkReadRequest) (*Notification, error) {
	if req.NotificationID == uuid.Nil {
		return nil, ErrNotificationIDRequired
	}
	if req.UserID == uuid.Nil {
		return nil, ErrUserIDRequired
	}

	record, err := s.store.GetByID(ctx, req.NotificationID)
	if err != nil {
		return nil, err
	}
	if record.UserID != req.UserID {
		return nil, &NotFoundError{Resource: "notification", Key: req.NotificationID.String()}
	}
	if record.ReadAt != nil {
		return record, nil
	}

	now := s.now().UTC()
	record.ReadAt = &now
	record.UpdatedAt = now
	return s.store.Update(ctx, record)
}

// Cancel withdraws a pending record before dispatch. Canceling twice is a
// no-op; records already sent or failed report ErrAlreadyDispatched.
func (s *service) Cancel(ctx context.Context, req CancelNotificationRequest) error {
	if req.NotificationID == uuid.Nil {
		return ErrNotificationIDRequired
	}
	if req.CanceledBy == uuid.Nil {
		return ErrUserIDRequired
	}

	record, err := s.store.GetByID(ctx, req.NotificationID)
	if err != nil {
		return err
	}
	if record.UserID != req.CanceledBy {
		return &NotFoundError{Resource: "notification", Key: req.NotificationID.String()}
	}
	switch record.Status {
	case StatusCanceled:
		return nil
	case StatusPending:
	default:
		return ErrAlreadyDispatched
	}

	record.Status = StatusCanceled
	record.UpdatedAt = s.now().UTC()
	if _, err := s.store.Update(ctx, record); err != nil {
		return err
	}

	s.activity.Emit(ctx, activity.Event{
		Verb:       "cancel",
		ActorID:    req.CanceledBy.String(),
		TenantID:   record.FamilyID.String(),
		ObjectType: "notification",
		ObjectID:   record.ID.String(),
	})
	return nil
}

// Dispatch delivers due records through their channel senders and returns the
// number sent. Per-record failures are retried on later passes until the
// attempt cap marks them failed.
func (s *service) Dispatch(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultDispatchBatch
	}

	now := s.now().UTC()
	due, err := s.store.ListDue(ctx, now, batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, record := range due {
		if s.deliver(ctx, record, now) {
			sent++
		}
	}
	return sent, nil
}

// deliver attempts one record and persists the outcome. Returns true when the
// record reached sent.
func (s *service) deliver(ctx context.Context, record *Notification, now time.Time) bool {
	record.Attempts++

	if err := s.send(ctx, record); err != nil {
		record.LastError = err.Error()
		if record.Attempts >= MaxDispatchAttempts {
			record.Status = StatusFailed
		}
		record.UpdatedAt = now
		if _, updateErr := s.store.Update(ctx, record); updateErr != nil {
			s.logger.Error("notification state update failed",
				"notification_id", record.ID.String(), "error", updateErr)
		}
		s.logger.Error("notification delivery failed",
			"notification_id", record.ID.String(),
			"channel", string(record.Channel),
			"attempts", record.Attempts,
			"error", err,
		)
		return false
	}

	record.Status = StatusSent
	record.SentAt = &now
	record.LastError = ""
	record.UpdatedAt = now
	if _, err := s.store.Update(ctx, record); err != nil {
		s.logger.Error("notification state update failed",
			"notification_id", record.ID.String(), "error", err)
		return false
	}
	return true
}

func (s *service) send(ctx context.Context, record *Notification) error {
	if record.Channel == domain.ChannelInApp {
		return nil
	}

	sender, ok := s.senders[record.Channel]
	if !ok {
		s.logger.Warn("no sender for channel, notification stays in-app",
			"notification_id", record.ID.String(),
			"channel", string(record.Channel),
		)
		return nil
	}

	delivery := Delivery{Record: record}
	if record.Channel == domain.ChannelEmail && record.Body != "" {
		html, err := s.renderer.HTML(s.withEmailFooter(record.Body))
		if err != nil {
			s.logger.Warn("notification html render failed, sending text only",
				"notification_id", record.ID.String(), "error", err)
		} else {
			delivery.HTMLBody = html
		}
	}
	return sender.Send(ctx, delivery)
}

// withEmailFooter appends the manage-preferences link to outgoing email
// bodies when the link builder can resolve one.
func (s *service) withEmailFooter(body string) string {
	if s.linker == nil {
		return body
	}
	url, err := s.linker.PreferencesURL()
	if err != nil || url == "" {
		return body
	}
	return body + "\n\n[Manage notification preferences](" + url + ")"
}
