package notifications

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-nestsync/domain"
	"github.com/google/uuid"
)

// MemoryPreferenceRepository is an in-memory implementation for scaffolding
// and tests.
type MemoryPreferenceRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*NotificationPreference
}

// NewMemoryPreferenceRepository creates an empty in-memory preference repository.
func NewMemoryPreferenceRepository() *MemoryPreferenceRepository {
	return &MemoryPreferenceRepository{
		records: make(map[uuid.UUID]*NotificationPreference),
	}
}

func (m *MemoryPreferenceRepository) Create(_ context.Context, record *NotificationPreference) (*NotificationPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.records {
		if existing.UserID == record.UserID && existing.FamilyID == record.FamilyID {
			return nil, errPreferenceExists
		}
	}

	copied := clonePreference(record)
	m.records[copied.ID] = copied
	return clonePreference(copied), nil
}

func (m *MemoryPreferenceRepository) GetByUserFamily(_ context.Context, userID, familyID uuid.UUID) (*NotificationPreference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, record := range m.records {
		if record.UserID == userID && record.FamilyID == familyID {
			return clonePreference(record), nil
		}
	}
	return nil, &NotFoundError{Resource: "notification preference", Key: userID.String()}
}

func (m *MemoryPreferenceRepository) ListByFamily(_ context.Context, familyID uuid.UUID) ([]*NotificationPreference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*NotificationPreference, 0)
	for _, record := range m.records {
		if record.FamilyID == familyID {
			out = append(out, clonePreference(record))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryPreferenceRepository) Update(_ context.Context, record *NotificationPreference) (*NotificationPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[record.ID]; !ok {
		return nil, &NotFoundError{Resource: "notification preference", Key: record.ID.String()}
	}

	copied := clonePreference(record)
	m.records[copied.ID] = copied
	return clonePreference(copied), nil
}

// MemoryNotificationRepository is an in-memory implementation for scaffolding
// and tests.
type MemoryNotificationRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Notification
}

// NewMemoryNotificationRepository creates an empty in-memory notification repository.
func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{
		records: make(map[uuid.UUID]*Notification),
	}
}

func (m *MemoryNotificationRepository) Create(_ context.Context, record *Notification) (*Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := cloneNotification(record)
	m.records[copied.ID] = copied
	return cloneNotification(copied), nil
}

func (m *MemoryNotificationRepository) GetByID(_ context.Context, id uuid.UUID) (*Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[id]
	if !ok {
		return nil, &NotFoundError{Resource: "notification", Key: id.String()}
	}
	return cloneNotification(record), nil
}

func (m *MemoryNotificationRepository) ListByUser(_ context.Context, req ListNotificationsRequest) ([]*Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Notification, 0)
	for _, record := range m.records {
		if record.UserID != req.UserID {
			continue
		}
		if req.FamilyID != nil && record.FamilyID != *req.FamilyID {
			continue
		}
		if req.Status != "" && record.Status != req.Status {
			continue
		}
		if req.UnreadOnly && record.ReadAt != nil {
			continue
		}
		out = append(out, cloneNotification(record))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

func (m *MemoryNotificationRepository) ListDue(_ context.Context, now time.Time, limit int) ([]*Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Notification, 0)
	for _, record := range m.records {
		if record.Status != StatusPending {
			continue
		}
		if record.ScheduledFor.After(now) {
			continue
		}
		if record.Attempts >= MaxDispatchAttempts {
			continue
		}
		out = append(out, cloneNotification(record))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledFor.Before(out[j].ScheduledFor)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryNotificationRepository) Update(_ context.Context, record *Notification) (*Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[record.ID]; !ok {
		return nil, &NotFoundError{Resource: "notification", Key: record.ID.String()}
	}

	copied := cloneNotification(record)
	m.records[copied.ID] = copied
	return cloneNotification(copied), nil
}

func clonePreference(src *NotificationPreference) *NotificationPreference {
	if src == nil {
		return nil
	}
	copied := *src
	if src.Channels != nil {
		copied.Channels = append([]domain.Channel(nil), src.Channels...)
	}
	if src.QuietHoursStart != nil {
		start := *src.QuietHoursStart
		copied.QuietHoursStart = &start
	}
	if src.QuietHoursEnd != nil {
		end := *src.QuietHoursEnd
		copied.QuietHoursEnd = &end
	}
	return &copied
}

func cloneNotification(src *Notification) *Notification {
	if src == nil {
		return nil
	}
	copied := *src
	if src.Data != nil {
		data := make(map[string]any, len(src.Data))
		for k, v := range src.Data {
			data[k] = v
		}
		copied.Data = data
	}
	if src.SentAt != nil {
		sentAt := *src.SentAt
		copied.SentAt = &sentAt
	}
	if src.ReadAt != nil {
		readAt := *src.ReadAt
		copied.ReadAt = &readAt
	}
	return &copied
}
