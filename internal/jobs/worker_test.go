package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	nsbilling "github.com/goliatone/go-nestsync/billing"
	nsfamilies "github.com/goliatone/go-nestsync/families"
	"github.com/goliatone/go-nestsync/internal/audit"
	"github.com/goliatone/go-nestsync/internal/identity"
	"github.com/goliatone/go-nestsync/internal/jobs"
	nsscheduler "github.com/goliatone/go-nestsync/internal/scheduler"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	"github.com/google/uuid"
)

func TestWorkerProcessWebhookRetry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	scheduler := nsscheduler.NewInMemory(nsscheduler.WithClock(func() time.Time { return now }))
	billing := &billingStub{event: &nsbilling.WebhookEvent{Status: nsbilling.WebhookProcessed}}
	recorder := audit.NewInMemoryRecorder()
	worker := jobs.NewWorker(scheduler, billing, &dispatcherStub{}, &scannerStub{}, &expirerStub{},
		jobs.WithAuditRecorder(recorder),
		jobs.WithClock(func() time.Time { return now }),
	)

	eventID := uuid.New()
	job, err := scheduler.Enqueue(ctx, interfaces.JobSpec{
		Key:         nsscheduler.WebhookRetryJobKey(eventID),
		Type:        nsscheduler.JobTypeWebhookRetry,
		RunAt:       now.Add(-time.Minute),
		Payload:     map[string]any{"event_id": eventID.String()},
		MaxAttempts: 3,
	})
	if err != nil {
		t.Fatalf("enqueue webhook retry: %v", err)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(billing.processed) != 1 || billing.processed[0] != eventID {
		t.Fatalf("expected webhook %s to be processed, got %v", eventID, billing.processed)
	}
	stored, err := scheduler.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if stored.Status != interfaces.JobStatusCompleted {
		t.Fatalf("expected job completed, got %s", stored.Status)
	}

	events := recorder.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(events))
	}
	entry := events[0]
	if entry.EntityType != "webhook_event" || entry.Action != "webhook_retry" {
		t.Fatalf("unexpected audit entry %s/%s", entry.EntityType, entry.Action)
	}
	if entry.EntityID != eventID.String() {
		t.Fatalf("expected audit entity %s, got %s", eventID, entry.EntityID)
	}
	if entry.ActorID != identity.SystemUserUUID().String() {
		t.Fatalf("expected system actor, got %s", entry.ActorID)
	}
	if entry.Metadata["status"] != nsbilling.WebhookProcessed {
		t.Fatalf("expected processed status metadata, got %v", entry.Metadata["status"])
	}
	if entry.Metadata["job_id"] != job.ID {
		t.Fatalf("expected job metadata to reference %s, got %v", job.ID, entry.Metadata["job_id"])
	}
}

func TestWorkerProcessTrialJobs(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	scheduler := nsscheduler.NewInMemory(nsscheduler.WithClock(func() time.Time { return now }))
	billing := &billingStub{subscription: &nsbilling.Subscription{Status: nsbilling.SubscriptionExpired}}
	recorder := audit.NewInMemoryRecorder()
	worker := jobs.NewWorker(scheduler, billing, &dispatcherStub{}, &scannerStub{}, &expirerStub{},
		jobs.WithAuditRecorder(recorder),
		jobs.WithClock(func() time.Time { return now }),
	)

	endingID := uuid.New()
	expiringID := uuid.New()
	if _, err := scheduler.Enqueue(ctx, interfaces.JobSpec{
		Key:         nsscheduler.TrialEndingJobKey(endingID),
		Type:        nsscheduler.JobTypeTrialEnding,
		RunAt:       now.Add(-2 * time.Minute),
		Payload:     map[string]any{"subscription_id": endingID.String()},
		MaxAttempts: 3,
	}); err != nil {
		t.Fatalf("enqueue trial ending: %v", err)
	}
	if _, err := scheduler.Enqueue(ctx, interfaces.JobSpec{
		Key:         nsscheduler.TrialExpiryJobKey(expiringID),
		Type:        nsscheduler.JobTypeTrialExpiry,
		RunAt:       now.Add(-time.Minute),
		Payload:     map[string]any{"subscription_id": expiringID.String()},
		MaxAttempts: 3,
	}); err != nil {
		t.Fatalf("enqueue trial expiry: %v", err)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(billing.reminded) != 1 || billing.reminded[0] != endingID {
		t.Fatalf("expected reminder for %s, got %v", endingID, billing.reminded)
	}
	if len(billing.expired) != 1 || billing.expired[0] != expiringID {
		t.Fatalf("expected expiry for %s, got %v", expiringID, billing.expired)
	}

	events := recorder.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 audit events, got %d", len(events))
	}
	if events[0].Action != "trial_ending" || events[0].EntityID != endingID.String() {
		t.Fatalf("unexpected first audit entry %s/%s", events[0].Action, events[0].EntityID)
	}
	if events[1].Action != "trial_expiry" || events[1].EntityID != expiringID.String() {
		t.Fatalf("unexpected second audit entry %s/%s", events[1].Action, events[1].EntityID)
	}
	if events[1].Metadata["status"] != nsbilling.SubscriptionExpired {
		t.Fatalf("expected expired status metadata, got %v", events[1].Metadata["status"])
	}
}

func TestWorkerRetriesFailedJobs(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	scheduler := nsscheduler.NewInMemory(nsscheduler.WithClock(func() time.Time { return now }))
	billing := &billingStub{
		event: &nsbilling.WebhookEvent{Status: nsbilling.WebhookProcessed},
		err:   errors.New("provider unavailable"),
	}
	recorder := audit.NewInMemoryRecorder()
	worker := jobs.NewWorker(scheduler, billing, &dispatcherStub{}, &scannerStub{}, &expirerStub{},
		jobs.WithAuditRecorder(recorder),
		jobs.WithClock(func() time.Time { return now }),
	)

	eventID := uuid.New()
	job, err := scheduler.Enqueue(ctx, interfaces.JobSpec{
		Key:         nsscheduler.WebhookRetryJobKey(eventID),
		Type:        nsscheduler.JobTypeWebhookRetry,
		RunAt:       now.Add(-time.Minute),
		Payload:     map[string]any{"event_id": eventID.String()},
		MaxAttempts: 3,
	})
	if err != nil {
		t.Fatalf("enqueue webhook retry: %v", err)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}
	stored, err := scheduler.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if stored.Status != interfaces.JobStatusPending {
		t.Fatalf("expected pending retry, got %s", stored.Status)
	}
	if stored.Attempt != 1 {
		t.Fatalf("expected 1 attempt, got %d", stored.Attempt)
	}
	if stored.LastError == "" {
		t.Fatal("expected last error to be recorded")
	}
	if len(recorder.Events()) != 0 {
		t.Fatalf("expected no audit events for failed run, got %d", len(recorder.Events()))
	}

	billing.err = nil
	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process retry: %v", err)
	}
	stored, err = scheduler.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job after retry: %v", err)
	}
	if stored.Status != interfaces.JobStatusCompleted {
		t.Fatalf("expected job completed after retry, got %s", stored.Status)
	}
	if len(billing.processed) != 2 {
		t.Fatalf("expected 2 processing attempts, got %d", len(billing.processed))
	}
	if len(recorder.Events()) != 1 {
		t.Fatalf("expected audit entry for successful retry, got %d", len(recorder.Events()))
	}
}

func TestWorkerMarksJobFailedAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	scheduler := nsscheduler.NewInMemory(nsscheduler.WithClock(func() time.Time { return now }))
	billing := &billingStub{err: errors.New("provider unavailable")}
	worker := jobs.NewWorker(scheduler, billing, &dispatcherStub{}, &scannerStub{}, &expirerStub{},
		jobs.WithClock(func() time.Time { return now }),
	)

	eventID := uuid.New()
	job, err := scheduler.Enqueue(ctx, interfaces.JobSpec{
		Key:         nsscheduler.WebhookRetryJobKey(eventID),
		Type:        nsscheduler.JobTypeWebhookRetry,
		RunAt:       now.Add(-time.Minute),
		Payload:     map[string]any{"event_id": eventID.String()},
		MaxAttempts: 1,
	})
	if err != nil {
		t.Fatalf("enqueue webhook retry: %v", err)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}
	stored, err := scheduler.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if stored.Status != interfaces.JobStatusFailed {
		t.Fatalf("expected failed job, got %s", stored.Status)
	}
	if stored.LastError != "provider unavailable" {
		t.Fatalf("expected last error, got %q", stored.LastError)
	}
}

func TestWorkerUnknownJobTypeCompletes(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	scheduler := nsscheduler.NewInMemory(nsscheduler.WithClock(func() time.Time { return now }))
	billing := &billingStub{}
	recorder := audit.NewInMemoryRecorder()
	worker := jobs.NewWorker(scheduler, billing, &dispatcherStub{}, &scannerStub{}, &expirerStub{},
		jobs.WithAuditRecorder(recorder),
		jobs.WithClock(func() time.Time { return now }),
	)

	job, err := scheduler.Enqueue(ctx, interfaces.JobSpec{
		Key:   "legacy:cleanup",
		Type:  "nestsync.legacy.cleanup",
		RunAt: now.Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("enqueue legacy job: %v", err)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}
	stored, err := scheduler.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if stored.Status != interfaces.JobStatusCompleted {
		t.Fatalf("expected unknown job type to complete, got %s", stored.Status)
	}
	if len(billing.processed)+len(billing.expired)+len(billing.reminded) != 0 {
		t.Fatal("expected no billing calls for unknown job type")
	}
	if len(recorder.Events()) != 0 {
		t.Fatalf("expected no audit events, got %d", len(recorder.Events()))
	}
}

func TestWorkerRecurringSweeps(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	scheduler := nsscheduler.NewInMemory(nsscheduler.WithClock(func() time.Time { return now }))
	dispatcher := &dispatcherStub{sent: 3}
	scanner := &scannerStub{alerted: 1}
	worker := jobs.NewWorker(scheduler, &billingStub{}, dispatcher, scanner, &expirerStub{},
		jobs.WithClock(func() time.Time { return now }),
		jobs.WithDispatchInterval(5*time.Minute),
		jobs.WithScanInterval(12*time.Hour),
		jobs.WithDispatchBatchSize(25),
	)

	if err := worker.ScheduleRecurring(ctx); err != nil {
		t.Fatalf("schedule recurring: %v", err)
	}
	dispatchJob, err := scheduler.GetByKey(ctx, nsscheduler.DispatchJobKey())
	if err != nil {
		t.Fatalf("get dispatch job: %v", err)
	}
	scanJob, err := scheduler.GetByKey(ctx, nsscheduler.LowStockScanJobKey())
	if err != nil {
		t.Fatalf("get scan job: %v", err)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(dispatcher.batches) != 1 || dispatcher.batches[0] != 25 {
		t.Fatalf("expected one dispatch run with batch 25, got %v", dispatcher.batches)
	}
	if scanner.runs != 1 {
		t.Fatalf("expected one scan run, got %d", scanner.runs)
	}

	stored, err := scheduler.Get(ctx, dispatchJob.ID)
	if err != nil {
		t.Fatalf("get finished dispatch job: %v", err)
	}
	if stored.Status != interfaces.JobStatusCompleted {
		t.Fatalf("expected completed dispatch job, got %s", stored.Status)
	}

	nextDispatch, err := scheduler.GetByKey(ctx, nsscheduler.DispatchJobKey())
	if err != nil {
		t.Fatalf("get rescheduled dispatch job: %v", err)
	}
	if nextDispatch.ID == dispatchJob.ID {
		t.Fatal("expected a fresh dispatch job to be booked")
	}
	if !nextDispatch.RunAt.Equal(now.Add(5 * time.Minute)) {
		t.Fatalf("expected next dispatch at %s, got %s", now.Add(5*time.Minute), nextDispatch.RunAt)
	}
	nextScan, err := scheduler.GetByKey(ctx, nsscheduler.LowStockScanJobKey())
	if err != nil {
		t.Fatalf("get rescheduled scan job: %v", err)
	}
	if nextScan.ID == scanJob.ID {
		t.Fatal("expected a fresh scan job to be booked")
	}
	if !nextScan.RunAt.Equal(now.Add(12 * time.Hour)) {
		t.Fatalf("expected next scan at %s, got %s", now.Add(12*time.Hour), nextScan.RunAt)
	}
}

func TestWorkerReschedulesSweepAfterFailure(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	scheduler := nsscheduler.NewInMemory(nsscheduler.WithClock(func() time.Time { return now }))
	scanner := &scannerStub{err: errors.New("projection store offline")}
	worker := jobs.NewWorker(scheduler, &billingStub{}, &dispatcherStub{}, scanner, &expirerStub{},
		jobs.WithClock(func() time.Time { return now }),
		jobs.WithScanInterval(12*time.Hour),
	)

	scanJob, err := scheduler.Enqueue(ctx, interfaces.JobSpec{
		Key:   nsscheduler.LowStockScanJobKey(),
		Type:  nsscheduler.JobTypeLowStockScan,
		RunAt: now.Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("enqueue scan job: %v", err)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	// The next run supersedes the failed attempt instead of retrying it out
	// of cadence.
	if _, err := scheduler.Get(ctx, scanJob.ID); !errors.Is(err, interfaces.ErrJobNotFound) {
		t.Fatalf("expected failed sweep row to be replaced, got %v", err)
	}
	next, err := scheduler.GetByKey(ctx, nsscheduler.LowStockScanJobKey())
	if err != nil {
		t.Fatalf("get rescheduled scan job: %v", err)
	}
	if next.Status != interfaces.JobStatusPending {
		t.Fatalf("expected pending scan job, got %s", next.Status)
	}
	if next.Attempt != 0 {
		t.Fatalf("expected fresh attempt counter, got %d", next.Attempt)
	}
	if !next.RunAt.Equal(now.Add(12 * time.Hour)) {
		t.Fatalf("expected next scan at %s, got %s", now.Add(12*time.Hour), next.RunAt)
	}
}

func TestWorkerProcessInvitationExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	scheduler := nsscheduler.NewInMemory(nsscheduler.WithClock(func() time.Time { return now }))
	familyID := uuid.New()
	invitationID := uuid.New()
	expirer := &expirerStub{invitation: &nsfamilies.FamilyInvitation{ID: invitationID, FamilyID: familyID}}
	recorder := audit.NewInMemoryRecorder()
	worker := jobs.NewWorker(scheduler, &billingStub{}, &dispatcherStub{}, &scannerStub{}, expirer,
		jobs.WithAuditRecorder(recorder),
		jobs.WithClock(func() time.Time { return now }),
	)

	job, err := scheduler.Enqueue(ctx, interfaces.JobSpec{
		Key:         nsscheduler.InvitationExpiryJobKey(invitationID),
		Type:        nsscheduler.JobTypeInvitationExpiry,
		RunAt:       now.Add(-time.Minute),
		Payload:     map[string]any{"invitation_id": invitationID.String()},
		MaxAttempts: 3,
	})
	if err != nil {
		t.Fatalf("enqueue invitation expiry: %v", err)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(expirer.ids) != 1 || expirer.ids[0] != invitationID {
		t.Fatalf("expected expiry for %s, got %v", invitationID, expirer.ids)
	}
	stored, err := scheduler.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if stored.Status != interfaces.JobStatusCompleted {
		t.Fatalf("expected job completed, got %s", stored.Status)
	}
	events := recorder.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(events))
	}
	if events[0].EntityType != "invitation" || events[0].Action != "invitation_expiry" {
		t.Fatalf("unexpected audit entry %s/%s", events[0].EntityType, events[0].Action)
	}
	if events[0].Metadata["family_id"] != familyID.String() {
		t.Fatalf("expected family metadata, got %v", events[0].Metadata["family_id"])
	}

	// A code consumed between scheduling and execution leaves nothing to
	// settle; the job completes quietly.
	goneID := uuid.New()
	expirer.err = nsfamilies.ErrInvitationNotFound
	goneJob, err := scheduler.Enqueue(ctx, interfaces.JobSpec{
		Key:         nsscheduler.InvitationExpiryJobKey(goneID),
		Type:        nsscheduler.JobTypeInvitationExpiry,
		RunAt:       now.Add(-time.Minute),
		Payload:     map[string]any{"invitation_id": goneID.String()},
		MaxAttempts: 3,
	})
	if err != nil {
		t.Fatalf("enqueue expired invitation job: %v", err)
	}
	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process gone invitation: %v", err)
	}
	stored, err = scheduler.Get(ctx, goneJob.ID)
	if err != nil {
		t.Fatalf("get gone job: %v", err)
	}
	if stored.Status != interfaces.JobStatusCompleted {
		t.Fatalf("expected completed job for missing invitation, got %s", stored.Status)
	}
	if len(recorder.Events()) != 1 {
		t.Fatalf("expected no extra audit events, got %d", len(recorder.Events()))
	}
}

func TestWorkerScheduleRecurringIdempotent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	scheduler := nsscheduler.NewInMemory(nsscheduler.WithClock(func() time.Time { return now }))
	worker := jobs.NewWorker(scheduler, &billingStub{}, &dispatcherStub{}, &scannerStub{}, &expirerStub{},
		jobs.WithClock(func() time.Time { return now }),
	)

	if err := worker.ScheduleRecurring(ctx); err != nil {
		t.Fatalf("schedule recurring: %v", err)
	}
	if err := worker.ScheduleRecurring(ctx); err != nil {
		t.Fatalf("schedule recurring again: %v", err)
	}

	due, err := scheduler.ListDue(ctx, now, 0)
	if err != nil {
		t.Fatalf("list due jobs: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 recurring jobs, got %d", len(due))
	}
}

func TestWorkerBatchSizeLimitsPass(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	scheduler := nsscheduler.NewInMemory(nsscheduler.WithClock(func() time.Time { return now }))
	billing := &billingStub{event: &nsbilling.WebhookEvent{Status: nsbilling.WebhookProcessed}}
	worker := jobs.NewWorker(scheduler, billing, &dispatcherStub{}, &scannerStub{}, &expirerStub{},
		jobs.WithClock(func() time.Time { return now }),
		jobs.WithBatchSize(1),
	)

	first := uuid.New()
	second := uuid.New()
	if _, err := scheduler.Enqueue(ctx, interfaces.JobSpec{
		Key:         nsscheduler.WebhookRetryJobKey(first),
		Type:        nsscheduler.JobTypeWebhookRetry,
		RunAt:       now.Add(-2 * time.Minute),
		Payload:     map[string]any{"event_id": first.String()},
		MaxAttempts: 3,
	}); err != nil {
		t.Fatalf("enqueue first retry: %v", err)
	}
	if _, err := scheduler.Enqueue(ctx, interfaces.JobSpec{
		Key:         nsscheduler.WebhookRetryJobKey(second),
		Type:        nsscheduler.JobTypeWebhookRetry,
		RunAt:       now.Add(-time.Minute),
		Payload:     map[string]any{"event_id": second.String()},
		MaxAttempts: 3,
	}); err != nil {
		t.Fatalf("enqueue second retry: %v", err)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(billing.processed) != 1 || billing.processed[0] != first {
		t.Fatalf("expected only the oldest job to run, got %v", billing.processed)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process remainder: %v", err)
	}
	if len(billing.processed) != 2 {
		t.Fatalf("expected both jobs processed after second pass, got %d", len(billing.processed))
	}
}

type billingStub struct {
	event        *nsbilling.WebhookEvent
	subscription *nsbilling.Subscription
	err          error
	processed    []uuid.UUID
	expired      []uuid.UUID
	reminded     []uuid.UUID
}

func (b *billingStub) ProcessWebhookEvent(_ context.Context, eventID uuid.UUID) (*nsbilling.WebhookEvent, error) {
	b.processed = append(b.processed, eventID)
	if b.err != nil {
		return nil, b.err
	}
	return b.event, nil
}

func (b *billingStub) ExpireTrial(_ context.Context, subscriptionID uuid.UUID) (*nsbilling.Subscription, error) {
	b.expired = append(b.expired, subscriptionID)
	if b.err != nil {
		return nil, b.err
	}
	return b.subscription, nil
}

func (b *billingStub) RemindTrialEnding(_ context.Context, subscriptionID uuid.UUID) error {
	b.reminded = append(b.reminded, subscriptionID)
	return b.err
}

type dispatcherStub struct {
	batches []int
	sent    int
	err     error
}

func (d *dispatcherStub) Dispatch(_ context.Context, batchSize int) (int, error) {
	d.batches = append(d.batches, batchSize)
	if d.err != nil {
		return 0, d.err
	}
	return d.sent, nil
}

type scannerStub struct {
	runs    int
	alerted int
	err     error
}

func (s *scannerStub) ScanLowStock(context.Context) (int, error) {
	s.runs++
	if s.err != nil {
		return 0, s.err
	}
	return s.alerted, nil
}

type expirerStub struct {
	invitation *nsfamilies.FamilyInvitation
	err        error
	ids        []uuid.UUID
}

func (e *expirerStub) ExpireInvitation(_ context.Context, invitationID uuid.UUID) (*nsfamilies.FamilyInvitation, error) {
	e.ids = append(e.ids, invitationID)
	if e.err != nil {
		return nil, e.err
	}
	return e.invitation, nil
}
