package users

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryUserRepository is an in-memory implementation for scaffolding and tests.
type MemoryUserRepository struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]*User
	emailIndex map[string]uuid.UUID
}

// NewMemoryUserRepository creates an empty in-memory user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:      make(map[uuid.UUID]*User),
		emailIndex: make(map[string]uuid.UUID),
	}
}

func (m *MemoryUserRepository) Create(_ context.Context, record *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(record.Email)
	if _, exists := m.emailIndex[key]; exists {
		return nil, ErrEmailTaken
	}

	copied := cloneUser(record)
	m.users[copied.ID] = copied
	m.emailIndex[key] = copied.ID
	return cloneUser(copied), nil
}

func (m *MemoryUserRepository) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.users[id]
	if !ok {
		return nil, &NotFoundError{Resource: "user", Key: id.String()}
	}
	return cloneUser(record), nil
}

func (m *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emailIndex[strings.ToLower(email)]
	if !ok {
		return nil, &NotFoundError{Resource: "user", Key: email}
	}
	return cloneUser(m.users[id]), nil
}

func (m *MemoryUserRepository) Update(_ context.Context, record *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[record.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "user", Key: record.ID.String()}
	}
	if !strings.EqualFold(existing.Email, record.Email) {
		delete(m.emailIndex, strings.ToLower(existing.Email))
		m.emailIndex[strings.ToLower(record.Email)] = record.ID
	}

	copied := cloneUser(record)
	m.users[copied.ID] = copied
	return cloneUser(copied), nil
}

// MemoryConsentRepository stores the consent ledger in memory.
type MemoryConsentRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID][]*ConsentRecord
}

// NewMemoryConsentRepository creates an empty in-memory ledger.
func NewMemoryConsentRepository() *MemoryConsentRepository {
	return &MemoryConsentRepository{
		records: make(map[uuid.UUID][]*ConsentRecord),
	}
}

func (m *MemoryConsentRepository) Append(_ context.Context, record *ConsentRecord) (*ConsentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := cloneConsent(record)
	m.records[copied.UserID] = append(m.records[copied.UserID], copied)
	return cloneConsent(copied), nil
}

func (m *MemoryConsentRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*ConsentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.records[userID]
	out := make([]*ConsentRecord, 0, len(entries))
	for _, record := range entries {
		out = append(out, cloneConsent(record))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.Before(out[j].RecordedAt)
	})
	return out, nil
}

func cloneUser(src *User) *User {
	if src == nil {
		return nil
	}
	copied := *src
	if len(src.Consents) > 0 {
		copied.Consents = make([]*ConsentRecord, len(src.Consents))
		for i, record := range src.Consents {
			copied.Consents[i] = cloneConsent(record)
		}
	}
	return &copied
}

func cloneConsent(src *ConsentRecord) *ConsentRecord {
	if src == nil {
		return nil
	}
	copied := *src
	if src.Metadata != nil {
		copied.Metadata = maps.Clone(src.Metadata)
	}
	copied.User = nil
	return &copied
}
