package children

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryChildRepository is an in-memory implementation for scaffolding and tests.
type MemoryChildRepository struct {
	mu       sync.RWMutex
	children map[uuid.UUID]*Child
}

// NewMemoryChildRepository creates an empty in-memory child repository.
func NewMemoryChildRepository() *MemoryChildRepository {
	return &MemoryChildRepository{
		children: make(map[uuid.UUID]*Child),
	}
}

func (m *MemoryChildRepository) Create(_ context.Context, record *Child) (*Child, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := cloneChild(record)
	m.children[copied.ID] = copied
	return cloneChild(copied), nil
}

func (m *MemoryChildRepository) GetByID(_ context.Context, id uuid.UUID) (*Child, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.children[id]
	if !ok {
		return nil, &NotFoundError{Resource: "child", Key: id.String()}
	}
	return cloneChild(record), nil
}

func (m *MemoryChildRepository) ListByFamily(_ context.Context, familyID uuid.UUID) ([]*Child, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Child, 0)
	for _, record := range m.children {
		if record.FamilyID == familyID {
			out = append(out, cloneChild(record))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryChildRepository) Update(_ context.Context, record *Child) (*Child, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.children[record.ID]; !ok {
		return nil, &NotFoundError{Resource: "child", Key: record.ID.String()}
	}

	copied := cloneChild(record)
	m.children[copied.ID] = copied
	return cloneChild(copied), nil
}

func cloneChild(src *Child) *Child {
	if src == nil {
		return nil
	}
	copied := *src
	if src.WeightKg != nil {
		weight := *src.WeightKg
		copied.WeightKg = &weight
	}
	if src.Notes != nil {
		notes := *src.Notes
		copied.Notes = &notes
	}
	return &copied
}
