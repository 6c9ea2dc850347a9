package domain

import "strings"

// Role describes what a family member is allowed to do within a family.
type Role string

const (
	// RoleOwner manages the family, its members, and billing.
	RoleOwner Role = "owner"
	// RoleCaregiver records usage and manages children and inventory.
	RoleCaregiver Role = "caregiver"
	// RoleViewer has read-only access to family data.
	RoleViewer Role = "viewer"
)

// Valid reports whether the role is recognized.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleCaregiver, RoleViewer:
		return true
	default:
		return false
	}
}

// CanWrite reports whether the role may create or modify family records.
func (r Role) CanWrite() bool {
	return r == RoleOwner || r == RoleCaregiver
}

// CanManage reports whether the role may administer members, invitations,
// and the family subscription.
func (r Role) CanManage() bool {
	return r == RoleOwner
}

// ParseRole normalizes a role label.
func ParseRole(input string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(input)))
	if role.Valid() {
		return role, true
	}
	return "", false
}
