package inventory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryItemRepository is an in-memory implementation for scaffolding and tests.
type MemoryItemRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*InventoryItem
}

// NewMemoryItemRepository creates an empty in-memory item repository.
func NewMemoryItemRepository() *MemoryItemRepository {
	return &MemoryItemRepository{
		items: make(map[uuid.UUID]*InventoryItem),
	}
}

func (m *MemoryItemRepository) Create(_ context.Context, record *InventoryItem) (*InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := cloneItem(record)
	m.items[copied.ID] = copied
	return cloneItem(copied), nil
}

func (m *MemoryItemRepository) GetByID(_ context.Context, id uuid.UUID) (*InventoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.items[id]
	if !ok {
		return nil, &NotFoundError{Resource: "inventory item", Key: id.String()}
	}
	return cloneItem(record), nil
}

func (m *MemoryItemRepository) ListByChild(_ context.Context, childID uuid.UUID) ([]*InventoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*InventoryItem, 0)
	for _, record := range m.items {
		if record.ChildID == childID {
			out = append(out, cloneItem(record))
		}
	}
	sortItemsFIFO(out)
	return out, nil
}

func (m *MemoryItemRepository) ListChildIDs(_ context.Context) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	out := make([]uuid.UUID, 0)
	for _, record := range m.items {
		if record.DeletedAt != nil || seen[record.ChildID] {
			continue
		}
		seen[record.ChildID] = true
		out = append(out, record.ChildID)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out, nil
}

func (m *MemoryItemRepository) Update(_ context.Context, record *InventoryItem) (*InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[record.ID]; !ok {
		return nil, &NotFoundError{Resource: "inventory item", Key: record.ID.String()}
	}

	copied := cloneItem(record)
	m.items[copied.ID] = copied
	return cloneItem(copied), nil
}

// MemoryUsageRepository is an in-memory implementation for scaffolding and tests.
type MemoryUsageRepository struct {
	mu   sync.RWMutex
	logs map[uuid.UUID]*UsageLog
}

// NewMemoryUsageRepository creates an empty in-memory usage repository.
func NewMemoryUsageRepository() *MemoryUsageRepository {
	return &MemoryUsageRepository{
		logs: make(map[uuid.UUID]*UsageLog),
	}
}

func (m *MemoryUsageRepository) Create(_ context.Context, record *UsageLog) (*UsageLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := cloneUsage(record)
	m.logs[copied.ID] = copied
	return cloneUsage(copied), nil
}

func (m *MemoryUsageRepository) GetByID(_ context.Context, id uuid.UUID) (*UsageLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.logs[id]
	if !ok {
		return nil, &NotFoundError{Resource: "usage log", Key: id.String()}
	}
	return cloneUsage(record), nil
}

func (m *MemoryUsageRepository) ListByChild(_ context.Context, childID uuid.UUID, since time.Time) ([]*UsageLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*UsageLog, 0)
	for _, record := range m.logs {
		if record.ChildID != childID {
			continue
		}
		if !since.IsZero() && record.OccurredAt.Before(since) {
			continue
		}
		out = append(out, cloneUsage(record))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out, nil
}

func (m *MemoryUsageRepository) Update(_ context.Context, record *UsageLog) (*UsageLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.logs[record.ID]; !ok {
		return nil, &NotFoundError{Resource: "usage log", Key: record.ID.String()}
	}

	copied := cloneUsage(record)
	m.logs[copied.ID] = copied
	return cloneUsage(copied), nil
}

func cloneItem(src *InventoryItem) *InventoryItem {
	if src == nil {
		return nil
	}
	copied := *src
	if src.CostCents != nil {
		cost := *src.CostCents
		copied.CostCents = &cost
	}
	return &copied
}

func cloneUsage(src *UsageLog) *UsageLog {
	if src == nil {
		return nil
	}
	copied := *src
	if src.InventoryItemID != nil {
		itemID := *src.InventoryItemID
		copied.InventoryItemID = &itemID
	}
	if src.Notes != nil {
		notes := *src.Notes
		copied.Notes = &notes
	}
	return &copied
}
