package scheduler

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-nestsync/pkg/interfaces"
	"github.com/google/uuid"
)

const defaultMaxAttempts = 3

// NewInMemory creates a deterministic scheduler backed by process memory.
// The server uses it as the default backend; tests drive it with a frozen
// clock.
func NewInMemory(opts ...Option) interfaces.Scheduler {
	mem := &memoryScheduler{
		now:         time.Now,
		id:          func() string { return uuid.NewString() },
		byID:        make(map[string]*storedJob),
		byKey:       make(map[string]*storedJob),
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(mem)
	}
	return mem
}

// Option allows customizing the behaviour of the in-memory scheduler.
type Option func(*memoryScheduler)

// WithClock overrides the internal clock, used mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *memoryScheduler) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides the ID generator used when enqueuing jobs.
func WithIDGenerator(generator func() string) Option {
	return func(s *memoryScheduler) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithDefaultMaxAttempts overrides the default retry attempts applied when the job spec leaves it unset.
func WithDefaultMaxAttempts(limit int) Option {
	return func(s *memoryScheduler) {
		if limit > 0 {
			s.maxAttempts = limit
		}
	}
}

// storedJob pairs the job with its admission order. ListDue breaks run-at
// ties on seq, so ordering stays stable even when every job shares one
// frozen-clock timestamp.
type storedJob struct {
	job *interfaces.Job
	seq uint64
}

type memoryScheduler struct {
	mu          sync.Mutex
	now         func() time.Time
	id          func() string
	maxAttempts int
	nextSeq     uint64
	byID        map[string]*storedJob
	byKey       map[string]*storedJob
}

// Enqueue books the job. A non-empty key displaces whatever job currently
// holds it, which is what keeps recurring sweeps and per-entity reminders
// idempotent across restarts and retries.
func (s *memoryScheduler) Enqueue(_ context.Context, spec interfaces.JobSpec) (*interfaces.Job, error) {
	if spec.RunAt.IsZero() {
		return nil, errors.New("scheduler: run_at is required")
	}

	job := &interfaces.Job{
		JobSpec: interfaces.JobSpec{
			Key:         spec.Key,
			Type:        spec.Type,
			RunAt:       spec.RunAt,
			Payload:     maps.Clone(spec.Payload),
			MaxAttempts: spec.MaxAttempts,
		},
	}
	if job.MaxAttempts == 0 {
		job.MaxAttempts = s.maxAttempts
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if job.Key != "" {
		if displaced, ok := s.byKey[job.Key]; ok {
			delete(s.byID, displaced.job.ID)
		}
	}

	now := s.now()
	job.ID = s.id()
	job.Status = interfaces.JobStatusPending
	job.CreatedAt = now
	job.UpdatedAt = now

	stored := &storedJob{job: job, seq: s.nextSeq}
	s.nextSeq++
	s.byID[job.ID] = stored
	if job.Key != "" {
		s.byKey[job.Key] = stored
	}

	return copyJob(job), nil
}

func (s *memoryScheduler) Cancel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[id]
	if !ok {
		return interfaces.ErrJobNotFound
	}
	stored.job.Status = interfaces.JobStatusCanceled
	stored.job.UpdatedAt = s.now()
	if stored.job.Key != "" {
		delete(s.byKey, stored.job.Key)
	}
	return nil
}

func (s *memoryScheduler) CancelByKey(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byKey[key]
	if !ok {
		return interfaces.ErrJobNotFound
	}
	stored.job.Status = interfaces.JobStatusCanceled
	stored.job.UpdatedAt = s.now()
	delete(s.byKey, key)
	return nil
}

func (s *memoryScheduler) Get(_ context.Context, id string) (*interfaces.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[id]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	return copyJob(stored.job), nil
}

func (s *memoryScheduler) GetByKey(_ context.Context, key string) (*interfaces.Job, error) {
	if key == "" {
		return nil, interfaces.ErrJobNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byKey[key]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	return copyJob(stored.job), nil
}

// ListDue returns pending jobs whose run-at instant has arrived, ordered by
// run-at and then admission order.
func (s *memoryScheduler) ListDue(_ context.Context, until time.Time, limit int) ([]*interfaces.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	due := make([]*storedJob, 0, len(s.byID))
	for _, stored := range s.byID {
		if stored.job.Status != interfaces.JobStatusPending {
			continue
		}
		if stored.job.RunAt.After(until) {
			continue
		}
		due = append(due, stored)
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].job.RunAt.Equal(due[j].job.RunAt) {
			return due[i].seq < due[j].seq
		}
		return due[i].job.RunAt.Before(due[j].job.RunAt)
	})

	if limit <= 0 || limit > len(due) {
		limit = len(due)
	}
	out := make([]*interfaces.Job, 0, limit)
	for _, stored := range due[:limit] {
		out = append(out, copyJob(stored.job))
	}
	return out, nil
}

func (s *memoryScheduler) MarkDone(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[id]
	if !ok {
		return interfaces.ErrJobNotFound
	}
	stored.job.Status = interfaces.JobStatusCompleted
	stored.job.UpdatedAt = s.now()
	if stored.job.Key != "" {
		delete(s.byKey, stored.job.Key)
	}
	return nil
}

// MarkFailed counts the attempt and either re-pends the job for another pass
// or parks it failed once attempts reach the cap. The key stays claimed so a
// later Enqueue under it supersedes the dead row.
func (s *memoryScheduler) MarkFailed(_ context.Context, id string, failure error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[id]
	if !ok {
		return interfaces.ErrJobNotFound
	}
	job := stored.job
	job.Attempt++
	job.UpdatedAt = s.now()
	job.LastError = ""
	if failure != nil {
		job.LastError = failure.Error()
	}
	if job.MaxAttempts > 0 && job.Attempt >= job.MaxAttempts {
		job.Status = interfaces.JobStatusFailed
	} else {
		job.Status = interfaces.JobStatusPending
	}
	return nil
}

func copyJob(job *interfaces.Job) *interfaces.Job {
	copied := *job
	copied.Payload = maps.Clone(job.Payload)
	return &copied
}
