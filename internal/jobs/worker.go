package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	nsbilling "github.com/goliatone/go-nestsync/billing"
	nsfamilies "github.com/goliatone/go-nestsync/families"
	"github.com/goliatone/go-nestsync/internal/audit"
	"github.com/goliatone/go-nestsync/internal/identity"
	"github.com/goliatone/go-nestsync/internal/logging"
	nsscheduler "github.com/goliatone/go-nestsync/internal/scheduler"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	"github.com/google/uuid"
)

const (
	defaultBatchSize        = 50
	defaultDispatchBatch    = 50
	defaultDispatchInterval = time.Minute
	defaultScanInterval     = 24 * time.Hour
)

// BillingJobs covers the scheduled billing transitions the worker drives.
// The billing service satisfies it.
type BillingJobs interface {
	ProcessWebhookEvent(ctx context.Context, eventID uuid.UUID) (*nsbilling.WebhookEvent, error)
	ExpireTrial(ctx context.Context, subscriptionID uuid.UUID) (*nsbilling.Subscription, error)
	RemindTrialEnding(ctx context.Context, subscriptionID uuid.UUID) error
}

// NotificationDispatcher delivers due notification records in batches. The
// notifications service satisfies it.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, batchSize int) (int, error)
}

// StockScanner sweeps tracked stock for children below their family's cover
// threshold. The inventory service satisfies it.
type StockScanner interface {
	ScanLowStock(ctx context.Context) (int, error)
}

// InvitationExpirer settles invitation codes whose window has lapsed. The
// families service satisfies it.
type InvitationExpirer interface {
	ExpireInvitation(ctx context.Context, invitationID uuid.UUID) (*nsfamilies.FamilyInvitation, error)
}

// Worker drains due scheduler jobs and applies them through the owning
// services. One Process pass handles at most batchSize jobs; the server loop
// calls Process on a short interval, and the recurring sweeps re-book
// themselves after every run.
type Worker struct {
	scheduler     interfaces.Scheduler
	billing       BillingJobs
	notifications NotificationDispatcher
	stock         StockScanner
	invitations   InvitationExpirer
	audit         audit.Recorder
	logger        interfaces.Logger
	now           func() time.Time
	batchSize     int
	dispatchBatch int
	dispatchEvery time.Duration
	scanEvery     time.Duration
}

type Option func(*Worker)

// WithAuditRecorder wires the trail that records each executed job.
func WithAuditRecorder(recorder audit.Recorder) Option {
	return func(w *Worker) {
		w.audit = recorder
	}
}

// WithLogger attaches a logger used for structured diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock overrides the clock used to pick due jobs.
func WithClock(clock func() time.Time) Option {
	return func(w *Worker) {
		if clock != nil {
			w.now = clock
		}
	}
}

// WithBatchSize bounds how many due jobs one Process pass handles.
func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// WithDispatchBatchSize bounds how many notifications one dispatch run sends.
func WithDispatchBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.dispatchBatch = size
		}
	}
}

// WithDispatchInterval sets the gap between notification dispatch runs.
func WithDispatchInterval(every time.Duration) Option {
	return func(w *Worker) {
		if every > 0 {
			w.dispatchEvery = every
		}
	}
}

// WithScanInterval sets the gap between low-stock scans.
func WithScanInterval(every time.Duration) Option {
	return func(w *Worker) {
		if every > 0 {
			w.scanEvery = every
		}
	}
}

func NewWorker(scheduler interfaces.Scheduler, billing BillingJobs, notifications NotificationDispatcher, stock StockScanner, invitations InvitationExpirer, opts ...Option) *Worker {
	w := &Worker{
		scheduler:     scheduler,
		billing:       billing,
		notifications: notifications,
		stock:         stock,
		invitations:   invitations,
		logger:        logging.NoOp(),
		now:           time.Now,
		batchSize:     defaultBatchSize,
		dispatchBatch: defaultDispatchBatch,
		dispatchEvery: defaultDispatchInterval,
		scanEvery:     defaultScanInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ScheduleRecurring books the self-repeating dispatch and low-stock sweeps.
// Call it once at boot; enqueueing replaces any pending run with the same key
// so restarts are safe.
func (w *Worker) ScheduleRecurring(ctx context.Context) error {
	if w.scheduler == nil {
		return errors.New("jobs: scheduler is nil")
	}
	now := w.now()
	specs := []interfaces.JobSpec{
		{
			Key:   nsscheduler.DispatchJobKey(),
			Type:  nsscheduler.JobTypeDispatch,
			RunAt: now,
		},
		{
			Key:   nsscheduler.LowStockScanJobKey(),
			Type:  nsscheduler.JobTypeLowStockScan,
			RunAt: now,
		},
	}
	for _, spec := range specs {
		if _, err := w.scheduler.Enqueue(ctx, spec); err != nil {
			return fmt.Errorf("jobs: schedule %s: %w", spec.Type, err)
		}
	}
	return nil
}

// Run processes due jobs on the given interval until the context ends.
func (w *Worker) Run(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Process(ctx); err != nil {
				w.logger.Error("job pass failed", "error", err)
			}
		}
	}
}

// Process handles one batch of due jobs. Failed jobs go back to pending via
// MarkFailed until their attempts run out; recurring sweeps re-book their
// next run either way so the chain never breaks.
func (w *Worker) Process(ctx context.Context) error {
	if w.scheduler == nil {
		return errors.New("jobs: scheduler is nil")
	}
	deadline := w.now()
	jobs, err := w.scheduler.ListDue(ctx, deadline, w.batchSize)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if err := w.handleJob(ctx, job, deadline); err != nil {
			w.logger.Error("job failed",
				"job_id", job.ID,
				"job_type", job.Type,
				"attempt", job.Attempt,
				"error", err,
			)
			_ = w.scheduler.MarkFailed(ctx, job.ID, err)
		} else {
			_ = w.scheduler.MarkDone(ctx, job.ID)
		}
		w.rescheduleRecurring(ctx, job, deadline)
	}
	return nil
}

func (w *Worker) handleJob(ctx context.Context, job *interfaces.Job, now time.Time) error {
	switch job.Type {
	case nsscheduler.JobTypeWebhookRetry:
		return w.processWebhookRetry(ctx, job, now)
	case nsscheduler.JobTypeTrialExpiry:
		return w.processTrialExpiry(ctx, job, now)
	case nsscheduler.JobTypeTrialEnding:
		return w.processTrialEnding(ctx, job, now)
	case nsscheduler.JobTypeDispatch:
		return w.processDispatch(ctx, job)
	case nsscheduler.JobTypeLowStockScan:
		return w.processLowStockScan(ctx, job)
	case nsscheduler.JobTypeInvitationExpiry:
		return w.processInvitationExpiry(ctx, job, now)
	default:
		return nil
	}
}

func (w *Worker) processWebhookRetry(ctx context.Context, job *interfaces.Job, now time.Time) error {
	if w.billing == nil {
		return errors.New("jobs: billing service is nil")
	}
	id, err := parseJobID(job.Payload, "event_id")
	if err != nil {
		return err
	}
	event, err := w.billing.ProcessWebhookEvent(ctx, id)
	if err != nil {
		return err
	}
	meta := buildAuditMetadata(job)
	meta["status"] = event.Status
	w.recordAudit(ctx, audit.Event{
		EntityType: "webhook_event",
		EntityID:   id.String(),
		Action:     "webhook_retry",
		ActorID:    identity.SystemUserUUID().String(),
		OccurredAt: now,
		Metadata:   meta,
	})
	return nil
}

func (w *Worker) processTrialExpiry(ctx context.Context, job *interfaces.Job, now time.Time) error {
	if w.billing == nil {
		return errors.New("jobs: billing service is nil")
	}
	id, err := parseJobID(job.Payload, "subscription_id")
	if err != nil {
		return err
	}
	sub, err := w.billing.ExpireTrial(ctx, id)
	if err != nil {
		return err
	}
	meta := buildAuditMetadata(job)
	meta["status"] = sub.Status
	w.recordAudit(ctx, audit.Event{
		EntityType: "subscription",
		EntityID:   id.String(),
		Action:     "trial_expiry",
		ActorID:    identity.SystemUserUUID().String(),
		OccurredAt: now,
		Metadata:   meta,
	})
	return nil
}

func (w *Worker) processTrialEnding(ctx context.Context, job *interfaces.Job, now time.Time) error {
	if w.billing == nil {
		return errors.New("jobs: billing service is nil")
	}
	id, err := parseJobID(job.Payload, "subscription_id")
	if err != nil {
		return err
	}
	if err := w.billing.RemindTrialEnding(ctx, id); err != nil {
		return err
	}
	w.recordAudit(ctx, audit.Event{
		EntityType: "subscription",
		EntityID:   id.String(),
		Action:     "trial_ending",
		ActorID:    identity.SystemUserUUID().String(),
		OccurredAt: now,
		Metadata:   buildAuditMetadata(job),
	})
	return nil
}

func (w *Worker) processDispatch(ctx context.Context, job *interfaces.Job) error {
	if w.notifications == nil {
		return errors.New("jobs: notification dispatcher is nil")
	}
	sent, err := w.notifications.Dispatch(ctx, w.dispatchBatch)
	if err != nil {
		return err
	}
	if sent > 0 {
		w.logger.Info("notification dispatch ran", "job_id", job.ID, "sent", sent)
	}
	return nil
}

func (w *Worker) processLowStockScan(ctx context.Context, job *interfaces.Job) error {
	if w.stock == nil {
		return errors.New("jobs: stock scanner is nil")
	}
	alerted, err := w.stock.ScanLowStock(ctx)
	if err != nil {
		return err
	}
	if alerted > 0 {
		w.logger.Info("low stock scan ran", "job_id", job.ID, "alerted", alerted)
	}
	return nil
}

func (w *Worker) processInvitationExpiry(ctx context.Context, job *interfaces.Job, now time.Time) error {
	if w.invitations == nil {
		return errors.New("jobs: invitation expirer is nil")
	}
	id, err := parseJobID(job.Payload, "invitation_id")
	if err != nil {
		return err
	}
	invitation, err := w.invitations.ExpireInvitation(ctx, id)
	if err != nil {
		// The invitation was consumed or revoked after the job was listed;
		// nothing is left to settle.
		if errors.Is(err, nsfamilies.ErrInvitationNotFound) {
			return nil
		}
		return err
	}
	meta := buildAuditMetadata(job)
	meta["family_id"] = invitation.FamilyID.String()
	w.recordAudit(ctx, audit.Event{
		EntityType: "invitation",
		EntityID:   id.String(),
		Action:     "invitation_expiry",
		ActorID:    identity.SystemUserUUID().String(),
		OccurredAt: now,
		Metadata:   meta,
	})
	return nil
}

// rescheduleRecurring books the next run for the self-repeating sweeps once
// the current one settles. Enqueue replaces the pending row under the same
// key, so a failed run is superseded rather than retried out of cadence.
func (w *Worker) rescheduleRecurring(ctx context.Context, job *interfaces.Job, now time.Time) {
	var next interfaces.JobSpec
	switch job.Type {
	case nsscheduler.JobTypeDispatch:
		next = interfaces.JobSpec{
			Key:   nsscheduler.DispatchJobKey(),
			Type:  nsscheduler.JobTypeDispatch,
			RunAt: now.Add(w.dispatchEvery),
		}
	case nsscheduler.JobTypeLowStockScan:
		next = interfaces.JobSpec{
			Key:   nsscheduler.LowStockScanJobKey(),
			Type:  nsscheduler.JobTypeLowStockScan,
			RunAt: now.Add(w.scanEvery),
		}
	default:
		return
	}
	if _, err := w.scheduler.Enqueue(ctx, next); err != nil {
		w.logger.Error("reschedule failed", "job_type", next.Type, "error", err)
	}
}

func (w *Worker) recordAudit(ctx context.Context, event audit.Event) {
	if w.audit == nil {
		return
	}
	_ = w.audit.Record(ctx, event)
}

func parseJobID(payload map[string]any, key string) (uuid.UUID, error) {
	if payload == nil {
		return uuid.Nil, fmt.Errorf("jobs: missing payload")
	}
	raw, ok := payload[key]
	if !ok {
		return uuid.Nil, fmt.Errorf("jobs: payload missing %s", key)
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("jobs: invalid %s payload", key)
	}
	return uuid.Parse(str)
}

func buildAuditMetadata(job *interfaces.Job) map[string]any {
	return map[string]any{
		"job_id":   job.ID,
		"job_type": job.Type,
		"run_at":   job.RunAt,
		"attempt":  job.Attempt,
	}
}
