package permissions

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-nestsync/internal/domain"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

const (
	ResourceFamilies      = "families"
	ResourceMembers       = "members"
	ResourceInvitations   = "invitations"
	ResourceChildren      = "children"
	ResourceInventory     = "inventory"
	ResourceUsage         = "usage"
	ResourceNotifications = "notifications"
	ResourceBilling       = "billing"
	ResourceConsents      = "consents"
)

const (
	FamiliesRead   = "families:read"
	FamiliesUpdate = "families:update"
	FamiliesDelete = "families:delete"
	FamiliesManage = "families:manage"

	MembersRead   = "members:read"
	MembersUpdate = "members:update"
	MembersDelete = "members:delete"

	InvitationsRead   = "invitations:read"
	InvitationsCreate = "invitations:create"
	InvitationsDelete = "invitations:delete"

	ChildrenRead   = "children:read"
	ChildrenCreate = "children:create"
	ChildrenUpdate = "children:update"
	ChildrenDelete = "children:delete"

	InventoryRead   = "inventory:read"
	InventoryCreate = "inventory:create"
	InventoryUpdate = "inventory:update"
	InventoryDelete = "inventory:delete"

	UsageRead   = "usage:read"
	UsageCreate = "usage:create"
	UsageDelete = "usage:delete"

	NotificationsRead   = "notifications:read"
	NotificationsUpdate = "notifications:update"

	BillingRead   = "billing:read"
	BillingManage = "billing:manage"
)

var ErrPermissionDenied = errors.New("permissions: denied")

type Error struct {
	Permission string
}

func (e Error) Error() string {
	if strings.TrimSpace(e.Permission) == "" {
		return "permission denied"
	}
	return "permission denied: " + e.Permission
}

func (e Error) Unwrap() error {
	return ErrPermissionDenied
}

// PermissionSet captures common CRUD permission tokens.
type PermissionSet struct {
	Read   string `json:"read,omitempty"`
	Create string `json:"create,omitempty"`
	Update string `json:"update,omitempty"`
	Delete string `json:"delete,omitempty"`
	Manage string `json:"manage,omitempty"`
}

// ResourcePermissions creates a permission set for a resource.
func ResourcePermissions(resource string, includeManage bool) PermissionSet {
	normalized := normalizeToken(resource)
	perms := PermissionSet{
		Read:   Join(normalized, ActionRead),
		Create: Join(normalized, ActionCreate),
		Update: Join(normalized, ActionUpdate),
		Delete: Join(normalized, ActionDelete),
	}
	if includeManage {
		perms.Manage = Join(normalized, ActionManage)
	}
	return perms
}

// Join builds a permission token from resource and action.
func Join(resource string, action Action) string {
	res := normalizeToken(resource)
	act := normalizeToken(string(action))
	if res == "" || act == "" {
		return ""
	}
	return res + ":" + act
}

// List returns the non-empty permissions in the set.
func (p PermissionSet) List() []string {
	out := make([]string, 0, 5)
	if p.Read != "" {
		out = append(out, p.Read)
	}
	if p.Create != "" {
		out = append(out, p.Create)
	}
	if p.Update != "" {
		out = append(out, p.Update)
	}
	if p.Delete != "" {
		out = append(out, p.Delete)
	}
	if p.Manage != "" {
		out = append(out, p.Manage)
	}
	return out
}

type Checker interface {
	Allowed(permission string) bool
}

type CheckerFunc func(permission string) bool

func (fn CheckerFunc) Allowed(permission string) bool {
	return fn(permission)
}

type Set map[string]struct{}

func NewSet(perms ...string) Set {
	set := Set{}
	for _, perm := range perms {
		normalized := normalizePermission(perm)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}

func (s Set) Allowed(permission string) bool {
	if len(s) == 0 {
		return false
	}
	normalized := normalizePermission(permission)
	if normalized == "" {
		return false
	}
	if _, ok := s[normalized]; ok {
		return true
	}
	base, scope := splitPermissionScope(normalized)
	resource, _ := splitPermission(base)
	if resource != "" {
		if _, ok := s[scopePermission(resource+":*", scope)]; ok {
			return true
		}
	}
	if _, ok := s[scopePermission("*", scope)]; ok {
		return true
	}
	return false
}

// RoleSet maps a family role onto the permission tokens it grants, scoped to
// the supplied family key. This is the in-process equivalent of the row level
// security policies the hosted database would enforce.
func RoleSet(role domain.Role, familyKey string) Set {
	var perms []string
	switch {
	case role.CanManage():
		perms = []string{
			"families:*", "members:*", "invitations:*", "children:*",
			"inventory:*", "usage:*", "notifications:*", "billing:*",
		}
	case role.CanWrite():
		perms = []string{
			FamiliesRead, MembersRead,
			InvitationsRead, InvitationsCreate,
			ChildrenRead, ChildrenCreate, ChildrenUpdate, ChildrenDelete,
			InventoryRead, InventoryCreate, InventoryUpdate, InventoryDelete,
			UsageRead, UsageCreate, UsageDelete,
			NotificationsRead, NotificationsUpdate,
			BillingRead,
		}
	case role.Valid():
		perms = []string{
			FamiliesRead, MembersRead, ChildrenRead,
			InventoryRead, UsageRead, NotificationsRead, BillingRead,
		}
	default:
		return Set{}
	}

	key := normalizeFamilyKey(familyKey)
	if key == "" {
		return NewSet(perms...)
	}
	scoped := make([]string, 0, len(perms))
	for _, perm := range perms {
		scoped = append(scoped, scopePermission(perm, key))
	}
	return NewSet(scoped...)
}

type Permissioner interface {
	HasPermission(permission string) bool
}

type contextKey string

const checkerKey contextKey = "nestsync.permissions.checker"

// WithChecker stores a permission checker on the context.
func WithChecker(ctx context.Context, checker Checker) context.Context {
	if ctx == nil || checker == nil {
		return ctx
	}
	return context.WithValue(ctx, checkerKey, checker)
}

// WithPermissions stores a static permission set on the context.
func WithPermissions(ctx context.Context, perms ...string) context.Context {
	if ctx == nil || len(perms) == 0 {
		return ctx
	}
	return WithChecker(ctx, NewSet(perms...))
}

// CheckerFromContext returns the configured permission checker if available.
func CheckerFromContext(ctx context.Context) Checker {
	if ctx == nil {
		return nil
	}
	value := ctx.Value(checkerKey)
	if value == nil {
		return nil
	}
	switch typed := value.(type) {
	case Checker:
		return typed
	case Permissioner:
		return CheckerFunc(typed.HasPermission)
	case []string:
		return NewSet(typed...)
	case map[string]struct{}:
		return Set(typed)
	case map[string]bool:
		set := Set{}
		for key, allowed := range typed {
			if !allowed {
				continue
			}
			if normalized := normalizePermission(key); normalized != "" {
				set[normalized] = struct{}{}
			}
		}
		return set
	default:
		return nil
	}
}

// Allowed reports whether the provided permission is allowed for the context.
func Allowed(ctx context.Context, permission string) bool {
	checker := CheckerFromContext(ctx)
	if checker == nil {
		return true
	}
	normalized := normalizePermission(permission)
	if normalized == "" {
		return true
	}
	return allowedWithScope(ctx, checker, normalized)
}

// Require enforces a permission requirement when a checker is available on the context.
func Require(ctx context.Context, permission string) error {
	normalized := normalizePermission(permission)
	if normalized == "" {
		return nil
	}
	checker := CheckerFromContext(ctx)
	if checker == nil {
		return nil
	}
	if allowedWithScope(ctx, checker, normalized) {
		return nil
	}
	return Error{Permission: normalized}
}

func splitPermission(permission string) (string, Action) {
	normalized := normalizePermission(permission)
	if normalized == "" {
		return "", ""
	}
	parts := strings.SplitN(normalized, ":", 2)
	resource := normalizeToken(parts[0])
	if len(parts) == 1 {
		return resource, ""
	}
	return resource, Action(normalizeToken(parts[1]))
}

func normalizePermission(permission string) string {
	trimmed := strings.TrimSpace(permission)
	if trimmed == "" {
		return ""
	}
	return strings.ToLower(trimmed)
}

func normalizeToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
