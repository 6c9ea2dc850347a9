package families

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryFamilyRepository is an in-memory implementation for scaffolding and tests.
type MemoryFamilyRepository struct {
	mu        sync.RWMutex
	families  map[uuid.UUID]*Family
	slugIndex map[string]uuid.UUID
}

// NewMemoryFamilyRepository creates an empty in-memory family repository.
func NewMemoryFamilyRepository() *MemoryFamilyRepository {
	return &MemoryFamilyRepository{
		families:  make(map[uuid.UUID]*Family),
		slugIndex: make(map[string]uuid.UUID),
	}
}

func (m *MemoryFamilyRepository) Create(_ context.Context, record *Family) (*Family, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(record.Slug)
	if _, exists := m.slugIndex[key]; exists {
		return nil, ErrSlugTaken
	}

	copied := cloneFamily(record)
	m.families[copied.ID] = copied
	m.slugIndex[key] = copied.ID
	return cloneFamily(copied), nil
}

func (m *MemoryFamilyRepository) GetByID(_ context.Context, id uuid.UUID) (*Family, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.families[id]
	if !ok {
		return nil, &NotFoundError{Resource: "family", Key: id.String()}
	}
	return cloneFamily(record), nil
}

func (m *MemoryFamilyRepository) GetBySlug(_ context.Context, slug string) (*Family, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.slugIndex[strings.ToLower(slug)]
	if !ok {
		return nil, &NotFoundError{Resource: "family", Key: slug}
	}
	return cloneFamily(m.families[id]), nil
}

func (m *MemoryFamilyRepository) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*Family, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Family, 0, len(ids))
	for _, id := range ids {
		if record, ok := m.families[id]; ok {
			out = append(out, cloneFamily(record))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryFamilyRepository) Update(_ context.Context, record *Family) (*Family, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.families[record.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "family", Key: record.ID.String()}
	}
	if !strings.EqualFold(existing.Slug, record.Slug) {
		key := strings.ToLower(record.Slug)
		if _, taken := m.slugIndex[key]; taken {
			return nil, ErrSlugTaken
		}
		delete(m.slugIndex, strings.ToLower(existing.Slug))
		m.slugIndex[key] = record.ID
	}

	copied := cloneFamily(record)
	m.families[copied.ID] = copied
	return cloneFamily(copied), nil
}

// MemoryMemberRepository stores family memberships in memory.
type MemoryMemberRepository struct {
	mu      sync.RWMutex
	members map[uuid.UUID]*FamilyMember
}

// NewMemoryMemberRepository creates an empty in-memory membership repository.
func NewMemoryMemberRepository() *MemoryMemberRepository {
	return &MemoryMemberRepository{
		members: make(map[uuid.UUID]*FamilyMember),
	}
}

func (m *MemoryMemberRepository) Create(_ context.Context, record *FamilyMember) (*FamilyMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.members {
		if existing.FamilyID == record.FamilyID && existing.UserID == record.UserID {
			return nil, ErrAlreadyMember
		}
	}

	copied := cloneMember(record)
	m.members[copied.ID] = copied
	return cloneMember(copied), nil
}

func (m *MemoryMemberRepository) Get(_ context.Context, familyID, userID uuid.UUID) (*FamilyMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, record := range m.members {
		if record.FamilyID == familyID && record.UserID == userID {
			return cloneMember(record), nil
		}
	}
	return nil, &NotFoundError{Resource: "family member", Key: userID.String()}
}

func (m *MemoryMemberRepository) ListByFamily(_ context.Context, familyID uuid.UUID) ([]*FamilyMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*FamilyMember, 0)
	for _, record := range m.members {
		if record.FamilyID == familyID {
			out = append(out, cloneMember(record))
		}
	}
	sortMembers(out)
	return out, nil
}

func (m *MemoryMemberRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*FamilyMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*FamilyMember, 0)
	for _, record := range m.members {
		if record.UserID == userID {
			out = append(out, cloneMember(record))
		}
	}
	sortMembers(out)
	return out, nil
}

func (m *MemoryMemberRepository) Update(_ context.Context, record *FamilyMember) (*FamilyMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.members[record.ID]; !ok {
		return nil, &NotFoundError{Resource: "family member", Key: record.ID.String()}
	}

	copied := cloneMember(record)
	m.members[copied.ID] = copied
	return cloneMember(copied), nil
}

// MemoryInvitationRepository stores invitations in memory.
type MemoryInvitationRepository struct {
	mu          sync.RWMutex
	invitations map[uuid.UUID]*FamilyInvitation
	codeIndex   map[string]uuid.UUID
}

// NewMemoryInvitationRepository creates an empty in-memory invitation repository.
func NewMemoryInvitationRepository() *MemoryInvitationRepository {
	return &MemoryInvitationRepository{
		invitations: make(map[uuid.UUID]*FamilyInvitation),
		codeIndex:   make(map[string]uuid.UUID),
	}
}

func (m *MemoryInvitationRepository) Create(_ context.Context, record *FamilyInvitation) (*FamilyInvitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := cloneInvitation(record)
	m.invitations[copied.ID] = copied
	m.codeIndex[strings.ToLower(copied.Code)] = copied.ID
	return cloneInvitation(copied), nil
}

func (m *MemoryInvitationRepository) GetByID(_ context.Context, id uuid.UUID) (*FamilyInvitation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.invitations[id]
	if !ok {
		return nil, &NotFoundError{Resource: "invitation", Key: id.String()}
	}
	return cloneInvitation(record), nil
}

func (m *MemoryInvitationRepository) GetByCode(_ context.Context, code string) (*FamilyInvitation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.codeIndex[strings.ToLower(code)]
	if !ok {
		return nil, &NotFoundError{Resource: "invitation", Key: code}
	}
	return cloneInvitation(m.invitations[id]), nil
}

func (m *MemoryInvitationRepository) ListByFamily(_ context.Context, familyID uuid.UUID) ([]*FamilyInvitation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*FamilyInvitation, 0)
	for _, record := range m.invitations {
		if record.FamilyID == familyID {
			out = append(out, cloneInvitation(record))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryInvitationRepository) Update(_ context.Context, record *FamilyInvitation) (*FamilyInvitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.invitations[record.ID]; !ok {
		return nil, &NotFoundError{Resource: "invitation", Key: record.ID.String()}
	}

	copied := cloneInvitation(record)
	m.invitations[copied.ID] = copied
	return cloneInvitation(copied), nil
}

func sortMembers(members []*FamilyMember) {
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].ID.String() < members[j].ID.String()
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
}

func cloneFamily(src *Family) *Family {
	if src == nil {
		return nil
	}
	copied := *src
	if len(src.Members) > 0 {
		copied.Members = make([]*FamilyMember, len(src.Members))
		for i, member := range src.Members {
			copied.Members[i] = cloneMember(member)
		}
	}
	return &copied
}

func cloneMember(src *FamilyMember) *FamilyMember {
	if src == nil {
		return nil
	}
	copied := *src
	copied.Family = nil
	return &copied
}

func cloneInvitation(src *FamilyInvitation) *FamilyInvitation {
	if src == nil {
		return nil
	}
	copied := *src
	copied.Family = nil
	return &copied
}
