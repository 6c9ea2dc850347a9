package families

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	nsfamilies "github.com/goliatone/go-nestsync/families"
	"github.com/goliatone/go-nestsync/internal/domain"
	"github.com/goliatone/go-nestsync/internal/identity"
	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/internal/permissions"
	"github.com/goliatone/go-nestsync/internal/scheduler"
	"github.com/goliatone/go-nestsync/pkg/activity"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	"github.com/google/uuid"
)

const (
	// DefaultInvitationTTL bounds how long an invitation code stays redeemable.
	DefaultInvitationTTL = 7 * 24 * time.Hour

	inviteCodeBytes = 16
)

// FamilyRepository abstracts storage operations for families.
type FamilyRepository interface {
	Create(ctx context.Context, record *Family) (*Family, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Family, error)
	GetBySlug(ctx context.Context, slug string) (*Family, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Family, error)
	Update(ctx context.Context, record *Family) (*Family, error)
}

// MemberRepository abstracts storage operations for family memberships.
// Removed members keep their row so a later accept can reactivate it.
type MemberRepository interface {
	Create(ctx context.Context, record *FamilyMember) (*FamilyMember, error)
	Get(ctx context.Context, familyID, userID uuid.UUID) (*FamilyMember, error)
	ListByFamily(ctx context.Context, familyID uuid.UUID) ([]*FamilyMember, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*FamilyMember, error)
	Update(ctx context.Context, record *FamilyMember) (*FamilyMember, error)
}

// InvitationRepository abstracts storage operations for invitation codes.
// Used and expired invitations are retained, never deleted.
type InvitationRepository interface {
	Create(ctx context.Context, record *FamilyInvitation) (*FamilyInvitation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*FamilyInvitation, error)
	GetByCode(ctx context.Context, code string) (*FamilyInvitation, error)
	ListByFamily(ctx context.Context, familyID uuid.UUID) ([]*FamilyInvitation, error)
	Update(ctx context.Context, record *FamilyInvitation) (*FamilyInvitation, error)
}

// InviteNotifier delivers invitation lifecycle notices: creation to the
// directed email address, expiry back to the inviter. Failures are logged,
// not returned; the invitation stands either way.
type InviteNotifier interface {
	InvitationCreated(ctx context.Context, family *Family, invitation *FamilyInvitation) error
	InvitationExpired(ctx context.Context, family *Family, invitation *FamilyInvitation) error
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

// WithScheduler wires the job scheduler used for invitation expiry jobs.
func WithScheduler(jobs interfaces.Scheduler) ServiceOption {
	return func(s *service) {
		s.jobs = jobs
	}
}

// WithInviteNotifier wires delivery of directed invitations.
func WithInviteNotifier(notifier InviteNotifier) ServiceOption {
	return func(s *service) {
		s.notifier = notifier
	}
}

// WithActivityEmitter attaches the activity emitter used to record family
// lifecycle events.
func WithActivityEmitter(emitter *activity.Emitter) ServiceOption {
	return func(s *service) {
		s.activity = emitter
	}
}

// WithInvitationTTL overrides the invitation expiry window.
func WithInvitationTTL(ttl time.Duration) ServiceOption {
	return func(s *service) {
		if ttl > 0 {
			s.inviteTTL = ttl
		}
	}
}

// service implements Service.
type service struct {
	families    FamilyRepository
	members     MemberRepository
	invitations InvitationRepository
	now         func() time.Time
	id          IDGenerator
	logger      interfaces.Logger
	jobs        interfaces.Scheduler
	notifier    InviteNotifier
	activity    *activity.Emitter
	inviteTTL   time.Duration
}

// NewService constructs a family service with the required dependencies.
func NewService(families FamilyRepository, members MemberRepository, invitations InvitationRepository, opts ...ServiceOption) Service {
	s := &service{
		families:    families,
		members:     members,
		invitations: invitations,
		now:         time.Now,
		id:          uuid.New,
		logger:      logging.NoOp(),
		inviteTTL:   DefaultInvitationTTL,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create creates a family and enrolls the creator as its owner.
func (s *service) Create(ctx context.Context, req CreateFamilyRequest) (*Family, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if req.CreatedBy == uuid.Nil {
		return nil, ErrCreatorRequired
	}

	slugValue, err := s.resolveSlug(ctx, req.Slug, name, uuid.Nil)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &Family{
		ID:        s.id(),
		Name:      name,
		Slug:      slugValue,
		CreatedBy: req.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.families.Create(ctx, record)
	if err != nil {
		return nil, err
	}

	owner := &FamilyMember{
		ID:        s.id(),
		FamilyID:  created.ID,
		UserID:    req.CreatedBy,
		Role:      domain.RoleOwner,
		Status:    nsfamilies.MemberStatusActive,
		JoinedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	member, err := s.members.Create(ctx, owner)
	if err != nil {
		return nil, err
	}
	created.Members = append(created.Members, member)

	s.activity.Emit(ctx, activity.Event{
		Verb:       "create",
		ActorID:    req.CreatedBy.String(),
		TenantID:   created.ID.String(),
		ObjectType: "family",
		ObjectID:   created.ID.String(),
		Metadata:   map[string]any{"slug": created.Slug},
	})
	s.logger.Info("family created", "family_id", created.ID.String(), "slug", created.Slug)
	return created, nil
}

// Get fetches a family by identifier.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*Family, error) {
	if id == uuid.Nil {
		return nil, ErrFamilyIDRequired
	}
	record, err := s.families.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.DeletedAt != nil {
		return nil, &NotFoundError{Resource: "family", Key: id.String()}
	}
	return record, nil
}

// GetBySlug fetches a family by its slug.
func (s *service) GetBySlug(ctx context.Context, slugValue string) (*Family, error) {
	normalized := strings.ToLower(strings.TrimSpace(slugValue))
	if normalized == "" {
		return nil, ErrSlugInvalid
	}
	record, err := s.families.GetBySlug(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if record.DeletedAt != nil {
		return nil, &NotFoundError{Resource: "family", Key: normalized}
	}
	return record, nil
}

// List returns the families the user is an active member of.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]*Family, error) {
	if userID == uuid.Nil {
		return nil, ErrUserIDRequired
	}
	memberships, err := s.members.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(memberships))
	for _, membership := range memberships {
		if membership.IsActive() {
			ids = append(ids, membership.FamilyID)
		}
	}
	if len(ids) == 0 {
		return []*Family{}, nil
	}

	records, err := s.families.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*Family, 0, len(records))
	for _, record := range records {
		if record.DeletedAt == nil {
			out = append(out, record)
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

// Update renames or re-slugs a family. Owners only.
func (s *service) Update(ctx context.Context, req UpdateFamilyRequest) (*Family, error) {
	record, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireRole(ctx, record.ID, req.UpdatedBy, permissions.FamiliesUpdate, domain.Role.CanManage); err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		record.Name = name
	}
	if req.Slug != nil {
		slugValue, err := s.resolveSlug(ctx, *req.Slug, record.Name, record.ID)
		if err != nil {
			return nil, err
		}
		record.Slug = slugValue
	}

	record.UpdatedAt = s.now()
	updated, err := s.families.Update(ctx, record)
	if err != nil {
		return nil, err
	}

	s.activity.Emit(ctx, activity.Event{
		Verb:       "update",
		ActorID:    req.UpdatedBy.String(),
		TenantID:   updated.ID.String(),
		ObjectType: "family",
		ObjectID:   updated.ID.String(),
		Metadata:   map[string]any{"slug": updated.Slug},
	})
	return updated, nil
}

// Delete soft deletes a family. Active memberships flip to removed and open
// invitations are revoked so their codes stop working.
func (s *service) Delete(ctx context.Context, req DeleteFamilyRequest) error {
	record, err := s.Get(ctx, req.ID)
	if err != nil {
		return err
	}
	if _, err := s.requireRole(ctx, record.ID, req.DeletedBy, permissions.FamiliesDelete, domain.Role.CanManage); err != nil {
		return err
	}

	now := s.now()
	record.DeletedAt = &now
	record.UpdatedAt = now
	if _, err := s.families.Update(ctx, record); err != nil {
		return err
	}

	members, err := s.members.ListByFamily(ctx, record.ID)
	if err != nil {
		return err
	}
	for _, member := range members {
		if !member.IsActive() {
			continue
		}
		member.Status = nsfamilies.MemberStatusRemoved
		member.UpdatedAt = now
		if _, err := s.members.Update(ctx, member); err != nil {
			return err
		}
	}

	invitations, err := s.invitations.ListByFamily(ctx, record.ID)
	if err != nil {
		return err
	}
	for _, invitation := range invitations {
		if !invitation.Pending(now) {
			continue
		}
		invitation.RevokedAt = &now
		if _, err := s.invitations.Update(ctx, invitation); err != nil {
			return err
		}
		s.cancelExpiryJob(ctx, invitation.ID)
	}

	s.activity.Emit(ctx, activity.Event{
		Verb:       "delete",
		ActorID:    req.DeletedBy.String(),
		TenantID:   record.ID.String(),
		ObjectType: "family",
		ObjectID:   record.ID.String(),
	})
	s.logger.Info("family deleted", "family_id", record.ID.String())
	return nil
}

// Members lists the active members of a family ordered by join time.
func (s *service) Members(ctx context.Context, familyID uuid.UUID) ([]*FamilyMember, error) {
	if _, err := s.Get(ctx, familyID); err != nil {
		return nil, err
	}
	records, err := s.members.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}

	out := make([]*FamilyMember, 0, len(records))
	for _, record := range records {
		if record.IsActive() {
			out = append(out, record)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}

// Membership returns the active membership linking a user to a family. It is
// the primitive access policies are built on.
func (s *service) Membership(ctx context.Context, familyID, userID uuid.UUID) (*FamilyMember, error) {
	if userID == uuid.Nil {
		return nil, ErrUserIDRequired
	}
	if _, err := s.Get(ctx, familyID); err != nil {
		return nil, err
	}
	record, err := s.members.Get(ctx, familyID, userID)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	if !record.IsActive() {
		return nil, ErrMemberNotFound
	}
	return record, nil
}

// UpdateMemberRole changes a member's role. Owners only, and the last owner
// cannot be demoted.
func (s *service) UpdateMemberRole(ctx context.Context, req UpdateMemberRoleRequest) (*FamilyMember, error) {
	if !req.Role.Valid() {
		return nil, ErrRoleInvalid
	}
	if _, err := s.Get(ctx, req.FamilyID); err != nil {
		return nil, err
	}
	if _, err := s.requireRole(ctx, req.FamilyID, req.UpdatedBy, permissions.MembersUpdate, domain.Role.CanManage); err != nil {
		return nil, err
	}

	target, err := s.Membership(ctx, req.FamilyID, req.UserID)
	if err != nil {
		return nil, err
	}
	if target.Role == req.Role {
		return target, nil
	}
	if target.Role == domain.RoleOwner {
		owners, err := s.activeOwnerCount(ctx, req.FamilyID)
		if err != nil {
			return nil, err
		}
		if owners <= 1 {
			return nil, ErrLastOwner
		}
	}

	target.Role = req.Role
	target.UpdatedAt = s.now()
	updated, err := s.members.Update(ctx, target)
	if err != nil {
		return nil, err
	}

	s.activity.Emit(ctx, activity.Event{
		Verb:       "update",
		ActorID:    req.UpdatedBy.String(),
		UserID:     req.UserID.String(),
		TenantID:   req.FamilyID.String(),
		ObjectType: "membership",
		ObjectID:   updated.ID.String(),
		Metadata:   map[string]any{"role": string(updated.Role)},
	})
	return updated, nil
}

// RemoveMember removes a member from a family. Owners can remove anyone,
// members can remove themselves, and the last owner can do neither.
func (s *service) RemoveMember(ctx context.Context, req RemoveMemberRequest) error {
	if _, err := s.Get(ctx, req.FamilyID); err != nil {
		return err
	}

	selfLeave := req.RemovedBy != uuid.Nil && req.RemovedBy == req.UserID
	if selfLeave {
		if _, err := s.requireRole(ctx, req.FamilyID, req.RemovedBy, permissions.MembersDelete, domain.Role.Valid); err != nil {
			return err
		}
	} else {
		if _, err := s.requireRole(ctx, req.FamilyID, req.RemovedBy, permissions.MembersDelete, domain.Role.CanManage); err != nil {
			return err
		}
	}

	target, err := s.Membership(ctx, req.FamilyID, req.UserID)
	if err != nil {
		return err
	}
	if target.Role == domain.RoleOwner {
		owners, err := s.activeOwnerCount(ctx, req.FamilyID)
		if err != nil {
			return err
		}
		if owners <= 1 {
			if selfLeave {
				return ErrSelfRemovalForbidden
			}
			return ErrLastOwner
		}
	}

	target.Status = nsfamilies.MemberStatusRemoved
	target.UpdatedAt = s.now()
	if _, err := s.members.Update(ctx, target); err != nil {
		return err
	}

	s.activity.Emit(ctx, activity.Event{
		Verb:       "remove",
		ActorID:    req.RemovedBy.String(),
		UserID:     req.UserID.String(),
		TenantID:   req.FamilyID.String(),
		ObjectType: "membership",
		ObjectID:   target.ID.String(),
	})
	return nil
}

// Invite creates a single-use invitation code. Owners and caregivers may
// invite; only owners may hand out the owner role.
func (s *service) Invite(ctx context.Context, req InviteMemberRequest) (*FamilyInvitation, error) {
	family, err := s.Get(ctx, req.FamilyID)
	if err != nil {
		return nil, err
	}
	actor, err := s.requireRole(ctx, req.FamilyID, req.InvitedBy, permissions.InvitationsCreate, domain.Role.CanWrite)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = domain.RoleCaregiver
	}
	if !role.Valid() {
		return nil, ErrRoleInvalid
	}
	if role == domain.RoleOwner && !actor.Role.CanManage() {
		return nil, permissions.Error{Permission: permissions.FamiliesManage}
	}

	var email *string
	if trimmed := strings.ToLower(strings.TrimSpace(req.Email)); trimmed != "" {
		if _, err := mail.ParseAddress(trimmed); err != nil {
			return nil, ErrInviteeEmailInvalid
		}
		email = &trimmed
	}

	code, err := generateInviteCode()
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &FamilyInvitation{
		ID:        s.id(),
		FamilyID:  family.ID,
		Code:      code,
		Email:     email,
		Role:      role,
		CreatedBy: req.InvitedBy,
		ExpiresAt: now.Add(s.inviteTTL),
		CreatedAt: now,
	}
	created, err := s.invitations.Create(ctx, record)
	if err != nil {
		return nil, err
	}

	s.scheduleExpiryJob(ctx, created)

	if created.Email != nil && s.notifier != nil {
		if err := s.notifier.InvitationCreated(ctx, family, created); err != nil {
			s.logger.Error("invitation delivery failed", "invitation_id", created.ID.String(), "error", err)
		}
	}

	event := activity.Event{
		Verb:       "invite",
		ActorID:    req.InvitedBy.String(),
		TenantID:   family.ID.String(),
		ObjectType: "invitation",
		ObjectID:   created.ID.String(),
		Metadata:   map[string]any{"role": string(created.Role)},
	}
	if created.Email != nil {
		event.Recipients = []string{*created.Email}
	}
	s.activity.Emit(ctx, event)

	s.logger.Info("invitation created", "family_id", family.ID.String(), "invitation_id", created.ID.String())
	return created, nil
}

// AcceptInvitation redeems a code for the acting user. A removed membership
// is reactivated instead of duplicated.
func (s *service) AcceptInvitation(ctx context.Context, req AcceptInvitationRequest) (*FamilyMember, error) {
	if req.UserID == uuid.Nil {
		return nil, ErrUserIDRequired
	}
	code := strings.ToLower(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, ErrInvitationNotFound
	}

	invitation, err := s.invitations.GetByCode(ctx, code)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}

	now := s.now()
	switch {
	case invitation.RevokedAt != nil:
		return nil, ErrInvitationRevoked
	case invitation.UsedAt != nil:
		return nil, ErrInvitationUsed
	case !invitation.ExpiresAt.After(now):
		return nil, ErrInvitationExpired
	}

	family, err := s.Get(ctx, invitation.FamilyID)
	if err != nil {
		return nil, err
	}
	if req.UserID == invitation.CreatedBy {
		return nil, ErrAlreadyMember
	}

	var member *FamilyMember
	existing, err := s.members.Get(ctx, family.ID, req.UserID)
	switch {
	case err == nil && existing.IsActive():
		return nil, ErrAlreadyMember
	case err == nil:
		existing.Status = nsfamilies.MemberStatusActive
		existing.Role = invitation.Role
		existing.InvitedBy = &invitation.CreatedBy
		existing.JoinedAt = now
		existing.UpdatedAt = now
		member, err = s.members.Update(ctx, existing)
		if err != nil {
			return nil, err
		}
	default:
		var notFound *NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		member, err = s.members.Create(ctx, &FamilyMember{
			ID:        s.id(),
			FamilyID:  family.ID,
			UserID:    req.UserID,
			Role:      invitation.Role,
			Status:    nsfamilies.MemberStatusActive,
			InvitedBy: &invitation.CreatedBy,
			JoinedAt:  now,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return nil, err
		}
	}

	invitation.UsedAt = &now
	invitation.UsedBy = &req.UserID
	if _, err := s.invitations.Update(ctx, invitation); err != nil {
		return nil, err
	}
	s.cancelExpiryJob(ctx, invitation.ID)

	s.activity.Emit(ctx, activity.Event{
		Verb:       "join",
		ActorID:    req.UserID.String(),
		UserID:     req.UserID.String(),
		TenantID:   family.ID.String(),
		ObjectType: "membership",
		ObjectID:   member.ID.String(),
		Metadata:   map[string]any{"role": string(member.Role)},
	})
	s.logger.Info("invitation accepted", "family_id", family.ID.String(), "user_id", req.UserID.String())
	return member, nil
}

// RevokeInvitation invalidates a pending invitation. The inviter or any owner
// may revoke; revoking twice is a no-op.
func (s *service) RevokeInvitation(ctx context.Context, req RevokeInvitationRequest) error {
	if req.InvitationID == uuid.Nil {
		return ErrInvitationNotFound
	}
	invitation, err := s.invitations.GetByID(ctx, req.InvitationID)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return ErrInvitationNotFound
		}
		return err
	}

	if invitation.CreatedBy != req.RevokedBy {
		if _, err := s.requireRole(ctx, invitation.FamilyID, req.RevokedBy, permissions.InvitationsDelete, domain.Role.CanManage); err != nil {
			return err
		}
	}

	if invitation.UsedAt != nil {
		return ErrInvitationUsed
	}
	if invitation.RevokedAt != nil {
		return nil
	}

	now := s.now()
	invitation.RevokedAt = &now
	if _, err := s.invitations.Update(ctx, invitation); err != nil {
		return err
	}
	s.cancelExpiryJob(ctx, invitation.ID)

	s.activity.Emit(ctx, activity.Event{
		Verb:       "revoke",
		ActorID:    req.RevokedBy.String(),
		TenantID:   invitation.FamilyID.String(),
		ObjectType: "invitation",
		ObjectID:   invitation.ID.String(),
	})
	return nil
}

// ExpireInvitation settles a pending invitation whose window has passed. The
// job worker calls it when the expiry job fires; used and revoked invitations
// are left untouched.
func (s *service) ExpireInvitation(ctx context.Context, invitationID uuid.UUID) (*FamilyInvitation, error) {
	if invitationID == uuid.Nil {
		return nil, ErrInvitationNotFound
	}
	invitation, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}

	if invitation.UsedAt != nil || invitation.RevokedAt != nil {
		return invitation, nil
	}
	if invitation.ExpiresAt.After(s.now()) {
		return nil, ErrInvitationNotExpired
	}

	if s.notifier != nil {
		family, err := s.Get(ctx, invitation.FamilyID)
		if err != nil {
			s.logger.Error("invitation expiry family lookup failed", "invitation_id", invitation.ID.String(), "error", err)
		} else if err := s.notifier.InvitationExpired(ctx, family, invitation); err != nil {
			s.logger.Error("invitation expiry notice failed", "invitation_id", invitation.ID.String(), "error", err)
		}
	}

	s.activity.Emit(ctx, activity.Event{
		Verb:       "expire",
		ActorID:    identity.SystemUserUUID().String(),
		TenantID:   invitation.FamilyID.String(),
		ObjectType: "invitation",
		ObjectID:   invitation.ID.String(),
		Metadata:   map[string]any{"role": string(invitation.Role)},
	})
	s.logger.Info("invitation expired", "family_id", invitation.FamilyID.String(), "invitation_id", invitation.ID.String())
	return invitation, nil
}

// ListInvitations returns every invitation for a family, newest first. Used
// and expired entries are part of the audit trail and stay listed.
func (s *service) ListInvitations(ctx context.Context, familyID uuid.UUID) ([]*FamilyInvitation, error) {
	if _, err := s.Get(ctx, familyID); err != nil {
		return nil, err
	}
	records, err := s.invitations.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// resolveSlug validates an explicit slug or derives one from the name, then
// enforces uniqueness. selfID excludes the family being updated.
func (s *service) resolveSlug(ctx context.Context, slugValue, name string, selfID uuid.UUID) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(slugValue))
	if normalized == "" {
		derived, err := nsfamilies.NormalizeSlug(name)
		if err != nil {
			return "", ErrSlugInvalid
		}
		normalized = derived
	}
	if !nsfamilies.IsValidSlug(normalized) {
		return "", ErrSlugInvalid
	}

	existing, err := s.families.GetBySlug(ctx, normalized)
	if err == nil && existing != nil && existing.ID != selfID {
		return "", ErrSlugTaken
	} else if err != nil {
		var notFound *NotFoundError
		if !errors.As(err, &notFound) {
			return "", err
		}
	}
	return normalized, nil
}

// requireRole resolves the actor's active membership and checks its role.
// Missing or inactive memberships deny the same way a failed role check does
// so outsiders cannot probe family existence.
func (s *service) requireRole(ctx context.Context, familyID, userID uuid.UUID, permission string, allowed func(domain.Role) bool) (*FamilyMember, error) {
	if userID == uuid.Nil {
		return nil, ErrUserIDRequired
	}
	member, err := s.members.Get(ctx, familyID, userID)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return nil, permissions.Error{Permission: permission}
		}
		return nil, err
	}
	if !member.IsActive() || !allowed(member.Role) {
		return nil, permissions.Error{Permission: permission}
	}
	return member, nil
}

func (s *service) activeOwnerCount(ctx context.Context, familyID uuid.UUID) (int, error) {
	members, err := s.members.ListByFamily(ctx, familyID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, member := range members {
		if member.IsActive() && member.Role == domain.RoleOwner {
			count++
		}
	}
	return count, nil
}

func (s *service) scheduleExpiryJob(ctx context.Context, invitation *FamilyInvitation) {
	if s.jobs == nil {
		return
	}
	_, err := s.jobs.Enqueue(ctx, interfaces.JobSpec{
		Key:   scheduler.InvitationExpiryJobKey(invitation.ID),
		Type:  scheduler.JobTypeInvitationExpiry,
		RunAt: invitation.ExpiresAt,
		Payload: map[string]any{
			"invitation_id": invitation.ID.String(),
			"family_id":     invitation.FamilyID.String(),
		},
		MaxAttempts: 3,
	})
	if err != nil {
		s.logger.Error("schedule invitation expiry failed", "invitation_id", invitation.ID.String(), "error", err)
	}
}

func (s *service) cancelExpiryJob(ctx context.Context, invitationID uuid.UUID) {
	if s.jobs == nil {
		return
	}
	err := s.jobs.CancelByKey(ctx, scheduler.InvitationExpiryJobKey(invitationID))
	if err != nil && !errors.Is(err, interfaces.ErrJobNotFound) {
		s.logger.Error("cancel invitation expiry failed", "invitation_id", invitationID.String(), "error", err)
	}
}

func generateInviteCode() (string, error) {
	buf := make([]byte, inviteCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("families: generate invitation code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
