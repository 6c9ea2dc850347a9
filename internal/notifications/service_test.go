package notifications_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	nschildren "github.com/goliatone/go-nestsync/children"
	"github.com/goliatone/go-nestsync/domain"
	"github.com/goliatone/go-nestsync/internal/notifications"
	nsinventory "github.com/goliatone/go-nestsync/inventory"
	"github.com/goliatone/go-nestsync/pkg/activity"
	nsusers "github.com/goliatone/go-nestsync/users"
	"github.com/google/uuid"
)

type grantingConsent struct {
	granted bool
}

func (g *grantingConsent) HasConsent(context.Context, uuid.UUID, nsusers.ConsentType) (bool, error) {
	return g.granted, nil
}

type staticUsers struct {
	users map[uuid.UUID]*nsusers.User
}

func (s *staticUsers) Get(_ context.Context, id uuid.UUID) (*nsusers.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, &nsusers.NotFoundError{Resource: "user", Key: id.String()}
	}
	return user, nil
}

type captureSender struct {
	deliveries []notifications.Delivery
	fail       error
}

func (c *captureSender) Send(_ context.Context, delivery notifications.Delivery) error {
	if c.fail != nil {
		return c.fail
	}
	c.deliveries = append(c.deliveries, delivery)
	return nil
}

type stubLinker struct{}

func (stubLinker) ChildURL(childID uuid.UUID) (string, error) {
	return "https://app.nestsync.ca/children/" + childID.String(), nil
}

func (stubLinker) SubscriptionURL() (string, error) {
	return "https://app.nestsync.ca/settings/billing", nil
}

func (stubLinker) PreferencesURL() (string, error) {
	return "https://app.nestsync.ca/settings/notifications", nil
}

type notificationsFixture struct {
	svc      notifications.Service
	prefs    *notifications.MemoryPreferenceRepository
	store    *notifications.MemoryNotificationRepository
	users    *staticUsers
	consent  *grantingConsent
	hook     *activity.CaptureHook
	userID   uuid.UUID
	familyID uuid.UUID
}

func newNotificationsFixture(clock func() time.Time, opts ...notifications.ServiceOption) *notificationsFixture {
	fx := &notificationsFixture{
		prefs:    notifications.NewMemoryPreferenceRepository(),
		store:    notifications.NewMemoryNotificationRepository(),
		consent:  &grantingConsent{granted: true},
		hook:     &activity.CaptureHook{},
		userID:   uuid.New(),
		familyID: uuid.New(),
	}
	fx.users = &staticUsers{users: map[uuid.UUID]*nsusers.User{
		fx.userID: {ID: fx.userID, Email: "sarah@example.ca", DisplayName: "Sarah", Timezone: "UTC"},
	}}

	emitter := activity.NewEmitter(activity.Hooks{fx.hook}, activity.Config{
		Enabled: true,
		Channel: "nestsync",
		Clock:   clock,
	})
	base := []notifications.ServiceOption{
		notifications.WithClock(clock),
		notifications.WithConsentChecker(fx.consent),
		notifications.WithActivityEmitter(emitter),
	}
	fx.svc = notifications.NewService(fx.prefs, fx.store, fx.users, append(base, opts...)...)
	return fx
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestServicePreferencesCreatesDefaults(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	fx := newNotificationsFixture(fixedClock(now))

	prefs, err := fx.svc.Preferences(context.Background(), fx.userID, fx.familyID)
	if err != nil {
		t.Fatalf("preferences: %v", err)
	}

	if len(prefs.Channels) != 2 || prefs.Channels[0] != domain.ChannelInApp || prefs.Channels[1] != domain.ChannelEmail {
		t.Fatalf("expected default channels [in_app email], got %v", prefs.Channels)
	}
	if prefs.LowStockThresholdDays != notifications.DefaultLowStockThresholdDays {
		t.Fatalf("expected threshold %d, got %d", notifications.DefaultLowStockThresholdDays, prefs.LowStockThresholdDays)
	}
	if !prefs.SizeChangeAlerts {
		t.Fatal("expected size change alerts on by default")
	}
	if prefs.MarketingOptIn {
		t.Fatal("expected marketing opt-in off by default")
	}
	if prefs.Digest != notifications.DigestImmediate {
		t.Fatalf("expected digest %q, got %q", notifications.DigestImmediate, prefs.Digest)
	}

	again, err := fx.svc.Preferences(context.Background(), fx.userID, fx.familyID)
	if err != nil {
		t.Fatalf("preferences second read: %v", err)
	}
	if again.ID != prefs.ID {
		t.Fatalf("expected persisted row %s, got %s", prefs.ID, again.ID)
	}
}

func TestServiceUpdatePreferencesValidation(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	fx := newNotificationsFixture(fixedClock(now))

	badStart := "25:99"
	lowThreshold := 0
	highThreshold := 31
	weekly := "weekly"

	cases := []struct {
		name string
		req  notifications.UpdatePreferencesRequest
		want error
	}{
		{
			name: "missing user",
			req:  notifications.UpdatePreferencesRequest{FamilyID: fx.familyID},
			want: notifications.ErrUserIDRequired,
		},
		{
			name: "missing family",
			req:  notifications.UpdatePreferencesRequest{UserID: fx.userID},
			want: notifications.ErrFamilyIDRequired,
		},
		{
			name: "unknown channel",
			req: notifications.UpdatePreferencesRequest{
				UserID:   fx.userID,
				FamilyID: fx.familyID,
				Channels: []domain.Channel{domain.ChannelEmail, domain.Channel("fax")},
			},
			want: notifications.ErrChannelInvalid,
		},
		{
			name: "malformed quiet hours",
			req: notifications.UpdatePreferencesRequest{
				UserID:          fx.userID,
				FamilyID:        fx.familyID,
				QuietHoursStart: &badStart,
			},
			want: notifications.ErrQuietHoursInvalid,
		},
		{
			name: "threshold too low",
			req: notifications.UpdatePreferencesRequest{
				UserID:                fx.userID,
				FamilyID:              fx.familyID,
				LowStockThresholdDays: &lowThreshold,
			},
			want: notifications.ErrThresholdInvalid,
		},
		{
			name: "threshold too high",
			req: notifications.UpdatePreferencesRequest{
				UserID:                fx.userID,
				FamilyID:              fx.familyID,
				LowStockThresholdDays: &highThreshold,
			},
			want: notifications.ErrThresholdInvalid,
		},
		{
			name: "unknown digest",
			req: notifications.UpdatePreferencesRequest{
				UserID:   fx.userID,
				FamilyID: fx.familyID,
				Digest:   &weekly,
			},
			want: notifications.ErrDigestInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := fx.svc.UpdatePreferences(context.Background(), tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestServiceUpdatePreferencesAppliesFields(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	fx := newNotificationsFixture(fixedClock(now))

	start := "22:00"
	end := "07:00"
	threshold := 5
	daily := notifications.DigestDaily
	alerts := false

	updated, err := fx.svc.UpdatePreferences(context.Background(), notifications.UpdatePreferencesRequest{
		UserID:                fx.userID,
		FamilyID:              fx.familyID,
		Channels:              []domain.Channel{domain.ChannelInApp, domain.ChannelInApp, domain.ChannelPush},
		QuietHoursStart:       &start,
		QuietHoursEnd:         &end,
		LowStockThresholdDays: &threshold,
		SizeChangeAlerts:      &alerts,
		Digest:                &daily,
	})
	if err != nil {
		t.Fatalf("update preferences: %v", err)
	}

	if len(updated.Channels) != 2 || updated.Channels[1] != domain.ChannelPush {
		t.Fatalf("expected deduped channels [in_app push], got %v", updated.Channels)
	}
	if updated.QuietHoursStart == nil || *updated.QuietHoursStart != "22:00" {
		t.Fatalf("expected quiet hours start 22:00, got %v", updated.QuietHoursStart)
	}
	if updated.LowStockThresholdDays != 5 {
		t.Fatalf("expected threshold 5, got %d", updated.LowStockThresholdDays)
	}
	if updated.SizeChangeAlerts {
		t.Fatal("expected size change alerts off")
	}
	if updated.Digest != notifications.DigestDaily {
		t.Fatalf("expected digest daily, got %q", updated.Digest)
	}

	clear := ""
	cleared, err := fx.svc.UpdatePreferences(context.Background(), notifications.UpdatePreferencesRequest{
		UserID:          fx.userID,
		FamilyID:        fx.familyID,
		QuietHoursStart: &clear,
		QuietHoursEnd:   &clear,
	})
	if err != nil {
		t.Fatalf("clear quiet hours: %v", err)
	}
	if cleared.QuietHoursStart != nil || cleared.QuietHoursEnd != nil {
		t.Fatalf("expected quiet hours cleared, got %v %v", cleared.QuietHoursStart, cleared.QuietHoursEnd)
	}
}

func TestServiceUpdatePreferencesMarketingRequiresConsent(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	fx := newNotificationsFixture(fixedClock(now))
	fx.consent.granted = false

	optIn := true
	_, err := fx.svc.UpdatePreferences(context.Background(), notifications.UpdatePreferencesRequest{
		UserID:         fx.userID,
		FamilyID:       fx.familyID,
		MarketingOptIn: &optIn,
	})
	if !errors.Is(err, nsusers.ErrConsentRequired) {
		t.Fatalf("expected consent error, got %v", err)
	}
	var consentErr *nsusers.ConsentRequiredError
	if !errors.As(err, &consentErr) || consentErr.Type != nsusers.ConsentMarketingEmails {
		t.Fatalf("expected marketing consent error, got %v", err)
	}

	optOut := false
	record, err := fx.svc.UpdatePreferences(context.Background(), notifications.UpdatePreferencesRequest{
		UserID:         fx.userID,
		FamilyID:       fx.familyID,
		MarketingOptIn: &optOut,
	})
	if err != nil {
		t.Fatalf("opt out should not need consent: %v", err)
	}
	if record.MarketingOptIn {
		t.Fatal("expected marketing opt-in off")
	}
}

func TestServiceEnqueueFansOutEnabledChannels(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	fx := newNotificationsFixture(fixedClock(now))

	records, err := fx.svc.Enqueue(context.Background(), notifications.EnqueueNotificationRequest{
		UserID:   fx.userID,
		FamilyID: fx.familyID,
		Type:     notifications.TypeSystem,
		Data:     map[string]any{"message": "Scheduled maintenance tonight."},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected in_app and email records, got %d", len(records))
	}
	if records[0].Channel != domain.ChannelInApp || records[1].Channel != domain.ChannelEmail {
		t.Fatalf("expected [in_app email], got [%s %s]", records[0].Channel, records[1].Channel)
	}
	for _, record := range records {
		if record.Title != "NestSync update" {
			t.Fatalf("expected rendered title, got %q", record.Title)
		}
		if !strings.Contains(record.Body, "Scheduled maintenance tonight.") {
			t.Fatalf("expected rendered body, got %q", record.Body)
		}
		if record.Status != notifications.StatusPending {
			t.Fatalf("expected pending, got %q", record.Status)
		}
		if !record.ScheduledFor.Equal(now) {
			t.Fatalf("expected scheduled now, got %s", record.ScheduledFor)
		}
	}

	channels := []domain.Channel{domain.ChannelInApp, domain.ChannelEmail, domain.ChannelPush}
	if _, err := fx.svc.UpdatePreferences(context.Background(), notifications.UpdatePreferencesRequest{
		UserID:   fx.userID,
		FamilyID: fx.familyID,
		Channels: channels,
	}); err != nil {
		t.Fatalf("enable push: %v", err)
	}

	records, err = fx.svc.Enqueue(context.Background(), notifications.EnqueueNotificationRequest{
		UserID:   fx.userID,
		FamilyID: fx.familyID,
		Type:     notifications.TypeSystem,
		Data:     map[string]any{"message": "Push enabled."},
	})
	if err != nil {
		t.Fatalf("enqueue with push: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected three channel records, got %d", len(records))
	}
}

func TestServiceEnqueueValidation(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	fx := newNotificationsFixture(fixedClock(now))

	cases := []struct {
		name string
		req  notifications.EnqueueNotificationRequest
		want error
	}{
		{
			name: "missing user",
			req: notifications.EnqueueNotificationRequest{
				FamilyID: fx.familyID,
				Type:     notifications.TypeSystem,
			},
			want: notifications.ErrUserIDRequired,
		},
		{
			name: "missing family",
			req: notifications.EnqueueNotificationRequest{
				UserID: fx.userID,
				Type:   notifications.TypeSystem,
			},
			want: notifications.ErrFamilyIDRequired,
		},
		{
			name: "unknown type",
			req: notifications.EnqueueNotificationRequest{
				UserID:   fx.userID,
				FamilyID: fx.familyID,
				Type:     notifications.NotificationType("carrier_pigeon"),
			},
			want: notifications.ErrTypeInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := fx.svc.Enqueue(context.Background(), tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestServiceEnqueueSizeAdvisoryMuted(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	fx := newNotificationsFixture(fixedClock(now))

	muted := false
	if _, err := fx.svc.UpdatePreferences(context.Background(), notifications.UpdatePreferencesRequest{
		UserID:           fx.userID,
		FamilyID:         fx.familyID,
		SizeChangeAlerts: &muted,
	}); err != nil {
		t.Fatalf("mute size alerts: %v", err)
	}

	records, err := fx.svc.Enqueue(context.Background(), notifications.EnqueueNotificationRequest{
		UserID:   fx.userID,
		FamilyID: fx.familyID,
		Type:     notifications.TypeSizeAdvisory,
		Data: map[string]any{
			"child_name":       "Noah",
			"reason":           "Noah is 20 months old",
			"current_size":     "size_3",
			"recommended_size": "size_4",
		},
	})
	if err != nil {
		t.Fatalf("enqueue muted advisory: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected advisory suppressed, got %d records", len(records))
	}

	feed, err := fx.svc.List(context.Background(), notifications.ListNotificationsRequest{UserID: fx.userID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(feed) != 0 {
		t.Fatalf("expected empty feed, got %d", len(feed))
	}
}

func TestServiceEnqueueInjectsDeepLinks(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	fx := newNotificationsFixture(fixedClock(now), notifications.WithWebLinker(stubLinker{}))

	childID := uuid.New()
	payload := map[string]any{
		"child_id":        childID.String(),
		"child_name":      "Noah",
		"size":            "size_3",
		"days_of_cover":   "2.5",
		"total_remaining": 4,
	}
	records, err := fx.svc.Enqueue(context.Background(), notifications.EnqueueNotificationRequest{
		UserID:   fx.userID,
		FamilyID: fx.familyID,
		Type:     notifications.TypeLowStock,
		Data:     payload,
	})
	if err != nil {
		t.Fatalf("enqueue low stock: %v", err)
	}
	wantChildURL := "https://app.nestsync.ca/children/" + childID.String()
	if got := records[0].Data["child_url"]; got != wantChildURL {
		t.Fatalf("expected child url %q, got %v", wantChildURL, got)
	}
	if !strings.Contains(records[0].Body, wantChildURL) {
		t.Fatalf("expected body to carry the child link, got %q", records[0].Body)
	}
	if _, mutated := payload["child_url"]; mutated {
		t.Fatal("expected caller payload to stay untouched")
	}

	records, err = fx.svc.Enqueue(context.Background(), notifications.EnqueueNotificationRequest{
		UserID:   fx.userID,
		FamilyID: fx.familyID,
		Type:     notifications.TypeTrialEnding,
		Data: map[string]any{
			"plan_name":     "Standard",
			"days_left":     3,
			"trial_ends_at": "July 1, 2025",
		},
	})
	if err != nil {
		t.Fatalf("enqueue trial ending: %v", err)
	}
	if got := records[0].Data["billing_url"]; got != "https://app.nestsync.ca/settings/billing" {
		t.Fatalf("expected billing url, got %v", got)
	}
	if !strings.Contains(records[0].Body, "settings/billing") {
		t.Fatalf("expected body to carry the billing link, got %q", records[0].Body)
	}

	records, err = fx.svc.Enqueue(context.Background(), notifications.EnqueueNotificationRequest{
		UserID:   fx.userID,
		FamilyID: fx.familyID,
		Type:     notifications.TypeSystem,
		Data:     map[string]any{"message": "Routine maintenance tonight."},
	})
	if err != nil {
		t.Fatalf("enqueue system: %v", err)
	}
	if _, ok := records[0].Data["child_url"]; ok {
		t.Fatal("expected no child link on system notices")
	}
	if _, ok := records[0].Data["billing_url"]; ok {
		t.Fatal("expected no billing link on system notices")
	}
}

func TestServiceEnqueueDefersQuietHours(t *testing.T) {
	now := time.Date(2025, 6, 15, 23, 0, 0, 0, time.UTC)
	fx := newNotificationsFixture(fixedClock(now))

	start := "22:00"
	end := "07:00"
	if _, err := fx.svc.UpdatePreferences(context.Background(), notifications.UpdatePreferencesRequest{
		UserID:          fx.userID,
		FamilyID:        fx.familyID,
		QuietHoursStart: &start,
		QuietHoursEnd:   &end,
	}); err != nil {
		t.Fatalf("set quiet hours: %v", err)
	}

	records, err := fx.svc.Enqueue(context.Background(), notifications.EnqueueNotificationRequest{
		UserID:   fx.userID,
		FamilyID: fx.familyID,
		Type:     notifications.TypeSystem,
		Data:     map[string]any{"message": "Good night."},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	want := time.Date(2025, 6, 16, 7, 0, 0, 0, time.UTC)
	for _, record := range records {
		if !record.ScheduledFor.Equal(want) {
			t.Fatalf("expected deferral to %s, got %s", want, record.ScheduledFor)
		}
	}
}

func TestServiceMarkReadOwnerOnly(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	fx := newNotificationsFixture(fixedClock(now))

	records, err := fx.svc.Enqueue(context.Background(), notifications.EnqueueNotificationRequest{
		UserID:   fx.userID,
		FamilyID: fx.familyID,
		Type:     notifications.TypeSystem,
		Data:     map[string]any{"message": "Hello."},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	target := records[0]

	_, err = fx.svc.MarkRead(context.Background(), notifications.MarkReadRequest{
		NotificationID: target.ID,
		UserID:         uuid.New(),
	})
	var notFound *notifications.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected not found for stranger, got %v", err)
	}

	read, err := fx.svc.MarkRead(context.Background(), notifications.MarkReadRequest{
		NotificationID: target.ID,
		UserID:         fx.userID,
	})
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if read.ReadAt == nil || !read.ReadAt.Equal(now) {
		t.Fatalf("expected read at %s, got %v", now, read.ReadAt)
	}

	again, err := fx.svc.MarkRead(context.Background(), notifications.MarkReadRequest{
		NotificationID: target.ID,
		UserID:         fx.userID,
	})
	if err != nil {
		t.Fatalf("mark read twice: %v", err)
	}
	if !again.ReadAt.Equal(*read.ReadAt) {
		t.Fatalf("expected read timestamp unchanged, got %v", again.ReadAt)
	}

	unread, err := fx.svc.List(context.Background(), notifications.ListNotificationsRequest{
		UserID:     fx.userID,
		UnreadOnly: true,
	})
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	for _, record := range unread {
		if record.ID == target.ID {
			t.Fatal("expected read record hidden from unread feed")
		}
	}
}

func TestServiceCancelLifecycle(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	fx := newNotificationsFixture(fixedClock(now))

	records, err := fx.svc.Enqueue(context.Background(), notifications.EnqueueNotificationRequest{
		UserID:   fx.userID,
		FamilyID: fx.familyID,
		Type:     notifications.TypeSystem,
		Data:     map[string]any{"message": "Cancel me."},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	target := records[0]

	if err := fx.svc.Cancel(context.Background(), notifications.CancelNotificationRequest{
		NotificationID: target.ID,
		CanceledBy:     fx.userID,
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	canceled, err := fx.store.GetByID(context.Background(), target.ID)
	if err != nil {
		t.Fatalf("get canceled: %v", err)
	}
	if canceled.Status != notifications.StatusCanceled {
		t.Fatalf("expected canceled, got %q", canceled.Status)
	}

	if err := fx.svc.Cancel(context.Background(), notifications.CancelNotificationRequest{
		NotificationID: target.ID,
		CanceledBy:     fx.userID,
	}); err != nil {
		t.Fatalf("cancel twice should be a no-op: %v", err)
	}

	if _, err := fx.svc.Dispatch(context.Background(), 10); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	sent := records[1]
	err = fx.svc.Cancel(context.Background(), notifications.CancelNotificationRequest{
		NotificationID: sent.ID,
		CanceledBy:     fx.userID,
	})
	if !errors.Is(err, notifications.ErrAlreadyDispatched) {
		t.Fatalf("expected already dispatched, got %v", err)
	}
}

func TestServiceDispatchSendsDue(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	email := &captureSender{}
	fx := newNotificationsFixture(fixedClock(now),
		notifications.WithChannelSender(domain.ChannelEmail, email),
	)

	if _, err := fx.svc.Enqueue(context.Background(), notifications.EnqueueNotificationRequest{
		UserID:   fx.userID,
		FamilyID: fx.familyID,
		Type:     notifications.TypeLowStock,
		Data: map[string]any{
			"child_name":      "Noah",
			"size":            "size_3",
			"days_of_cover":   "2.5",
			"total_remaining": 20,
		},
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	sent, err := fx.svc.Dispatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if sent != 2 {
		t.Fatalf("expected 2 sent, got %d", sent)
	}

	if len(email.deliveries) != 1 {
		t.Fatalf("expected one email delivery, got %d", len(email.deliveries))
	}
	delivery := email.deliveries[0]
	if delivery.Record.Title != "Running low on size_3 diapers" {
		t.Fatalf("unexpected title %q", delivery.Record.Title)
	}
	if !strings.Contains(delivery.HTMLBody, "<strong>Noah</strong>") {
		t.Fatalf("expected markdown rendered to html, got %q", delivery.HTMLBody)
	}

	feed, err := fx.svc.List(context.Background(), notifications.ListNotificationsRequest{
		UserID: fx.userID,
		Status: notifications.StatusSent,
	})
	if err != nil {
		t.Fatalf("list sent: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("expected 2 sent records, got %d", len(feed))
	}
	for _, record := range feed {
		if record.SentAt == nil || !record.SentAt.Equal(now) {
			t.Fatalf("expected sent at %s, got %v", now, record.SentAt)
		}
	}

	again, err := fx.svc.Dispatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected nothing due, got %d", again)
	}
}

func TestServiceDispatchEmailCarriesPreferencesFooter(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	email := &captureSender{}
	fx := newNotificationsFixture(fixedClock(now),
		notifications.WithChannelSender(domain.ChannelEmail, email),
		notifications.WithWebLinker(stubLinker{}),
	)

	if _, err := fx.svc.Enqueue(context.Background(), notifications.EnqueueNotificationRequest{
		UserID:   fx.userID,
		FamilyID: fx.familyID,
		Type:     notifications.TypeSystem,
		Data:     map[string]any{"message": "Routine maintenance tonight."},
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if _, err := fx.svc.Dispatch(context.Background(), 10); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(email.deliveries) != 1 {
		t.Fatalf("expected one email delivery, got %d", len(email.deliveries))
	}
	html := email.deliveries[0].HTMLBody
	if !strings.Contains(html, "settings/notifications") {
		t.Fatalf("expected preferences footer in email html, got %q", html)
	}
	if strings.Contains(email.deliveries[0].Record.Body, "settings/notifications") {
		t.Fatal("expected footer to stay out of the stored body")
	}
}

func TestServiceDispatchRetriesThenFails(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	email := &captureSender{fail: errors.New("smtp down")}
	fx := newNotificationsFixture(fixedClock(now),
		notifications.WithChannelSender(domain.ChannelEmail, email),
	)

	records, err := fx.svc.Enqueue(context.Background(), notifications.EnqueueNotificationRequest{
		UserID:   fx.userID,
		FamilyID: fx.familyID,
		Type:     notifications.TypeSystem,
		Data:     map[string]any{"message": "Flaky."},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	emailRecord := records[1]

	sent, err := fx.svc.Dispatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected only in_app sent, got %d", sent)
	}

	for attempt := 2; attempt <= notifications.MaxDispatchAttempts; attempt++ {
		if _, err := fx.svc.Dispatch(context.Background(), 10); err != nil {
			t.Fatalf("dispatch attempt %d: %v", attempt, err)
		}
	}

	failed, err := fx.store.GetByID(context.Background(), emailRecord.ID)
	if err != nil {
		t.Fatalf("get failed record: %v", err)
	}
	if failed.Status != notifications.StatusFailed {
		t.Fatalf("expected failed after %d attempts, got %q", notifications.MaxDispatchAttempts, failed.Status)
	}
	if failed.Attempts != notifications.MaxDispatchAttempts {
		t.Fatalf("expected %d attempts, got %d", notifications.MaxDispatchAttempts, failed.Attempts)
	}
	if failed.LastError != "smtp down" {
		t.Fatalf("expected last error recorded, got %q", failed.LastError)
	}

	sent, err = fx.svc.Dispatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("dispatch after failure: %v", err)
	}
	if sent != 0 {
		t.Fatalf("expected failed record excluded from dispatch, got %d", sent)
	}
}

func TestServiceDispatchSkipsFutureRecords(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	fx := newNotificationsFixture(fixedClock(now))

	if _, err := fx.svc.Enqueue(context.Background(), notifications.EnqueueNotificationRequest{
		UserID:       fx.userID,
		FamilyID:     fx.familyID,
		Type:         notifications.TypeTrialEnding,
		ScheduledFor: now.Add(48 * time.Hour),
		Data: map[string]any{
			"days_left":     2,
			"plan_name":     "Premium",
			"trial_ends_at": "June 17, 2025",
		},
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	sent, err := fx.svc.Dispatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if sent != 0 {
		t.Fatalf("expected future records untouched, got %d sent", sent)
	}
}

func TestFamilyThresholdsPicksMostSensitive(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	fx := newNotificationsFixture(fixedClock(now))

	if _, err := fx.svc.Preferences(context.Background(), fx.userID, fx.familyID); err != nil {
		t.Fatalf("seed first preference: %v", err)
	}
	partner := uuid.New()
	threshold := 7
	if _, err := fx.svc.UpdatePreferences(context.Background(), notifications.UpdatePreferencesRequest{
		UserID:                partner,
		FamilyID:              fx.familyID,
		LowStockThresholdDays: &threshold,
	}); err != nil {
		t.Fatalf("seed partner preference: %v", err)
	}

	resolver := notifications.NewFamilyThresholds(fx.prefs)
	days, err := resolver.LowStockThresholdDays(context.Background(), fx.familyID)
	if err != nil {
		t.Fatalf("resolve threshold: %v", err)
	}
	if days != 7 {
		t.Fatalf("expected most sensitive threshold 7, got %d", days)
	}

	days, err = resolver.LowStockThresholdDays(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("resolve unknown family: %v", err)
	}
	if days != notifications.DefaultLowStockThresholdDays {
		t.Fatalf("expected default %d, got %d", notifications.DefaultLowStockThresholdDays, days)
	}
}

type staticCaregivers struct {
	ids []uuid.UUID
}

func (s *staticCaregivers) ListActiveUserIDs(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return s.ids, nil
}

func TestLowStockAlerterFansOutToCaregivers(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	fx := newNotificationsFixture(fixedClock(now))
	partner := uuid.New()

	alerter := notifications.NewLowStockAlerter(fx.svc, &staticCaregivers{
		ids: []uuid.UUID{fx.userID, partner},
	}, nil)

	cover := 2.5
	err := alerter.LowStock(context.Background(), &nschildren.Child{
		ID:       uuid.New(),
		FamilyID: fx.familyID,
		Name:     "Noah",
	}, &nsinventory.StockProjection{
		Size:           domain.Size3,
		TotalRemaining: 20,
		DaysOfCover:    &cover,
		Low:            true,
	})
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}

	for _, userID := range []uuid.UUID{fx.userID, partner} {
		feed, err := fx.svc.List(context.Background(), notifications.ListNotificationsRequest{UserID: userID})
		if err != nil {
			t.Fatalf("list for %s: %v", userID, err)
		}
		if len(feed) == 0 {
			t.Fatalf("expected low stock notification for %s", userID)
		}
		record := feed[0]
		if record.Type != notifications.TypeLowStock {
			t.Fatalf("expected low_stock, got %q", record.Type)
		}
		if record.Title != "Running low on size_3 diapers" {
			t.Fatalf("unexpected title %q", record.Title)
		}
		if !strings.Contains(record.Body, "2.5 days") {
			t.Fatalf("expected cover in body, got %q", record.Body)
		}
	}
}

func TestSizeAdvisoryAlerterFansOutToCaregivers(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	fx := newNotificationsFixture(fixedClock(now))
	partner := uuid.New()

	alerter := notifications.NewSizeAdvisoryAlerter(fx.svc, &staticCaregivers{
		ids: []uuid.UUID{fx.userID, partner},
	}, nil)

	childID := uuid.New()
	err := alerter.SizeAdvisory(context.Background(), &nschildren.Child{
		ID:       childID,
		FamilyID: fx.familyID,
		Name:     "Noah",
	}, &nschildren.SizeAdvisory{
		ChildID:         childID,
		CurrentSize:     domain.Size2,
		RecommendedSize: domain.Size3,
		SizeUp:          true,
		Reason:          "age 8 months is typical for size_3",
	})
	if err != nil {
		t.Fatalf("size advisory: %v", err)
	}

	for _, userID := range []uuid.UUID{fx.userID, partner} {
		feed, err := fx.svc.List(context.Background(), notifications.ListNotificationsRequest{UserID: userID})
		if err != nil {
			t.Fatalf("list for %s: %v", userID, err)
		}
		if len(feed) == 0 {
			t.Fatalf("expected size advisory notification for %s", userID)
		}
		record := feed[0]
		if record.Type != notifications.TypeSizeAdvisory {
			t.Fatalf("expected size_advisory, got %q", record.Type)
		}
		if record.Title != "Time to size up for Noah?" {
			t.Fatalf("unexpected title %q", record.Title)
		}
		if !strings.Contains(record.Body, "size_3") {
			t.Fatalf("expected recommendation in body, got %q", record.Body)
		}
	}
}
