package domain

import internaldomain "github.com/goliatone/go-nestsync/internal/domain"

// DiaperSize identifies a diaper size band on the Canadian retail scale.
type DiaperSize = internaldomain.DiaperSize

const (
	SizeNewborn = internaldomain.SizeNewborn
	Size1       = internaldomain.Size1
	Size2       = internaldomain.Size2
	Size3       = internaldomain.Size3
	Size4       = internaldomain.Size4
	Size5       = internaldomain.Size5
	Size6       = internaldomain.Size6
	Size7       = internaldomain.Size7
)

// DiaperSizes returns the size scale in ascending order.
func DiaperSizes() []DiaperSize {
	return internaldomain.DiaperSizes()
}

// ParseDiaperSize normalizes user supplied size labels.
func ParseDiaperSize(input string) (DiaperSize, bool) {
	return internaldomain.ParseDiaperSize(input)
}

// Province is a two letter Canadian province or territory code.
type Province = internaldomain.Province

const (
	ProvinceAB = internaldomain.ProvinceAB
	ProvinceBC = internaldomain.ProvinceBC
	ProvinceMB = internaldomain.ProvinceMB
	ProvinceNB = internaldomain.ProvinceNB
	ProvinceNL = internaldomain.ProvinceNL
	ProvinceNS = internaldomain.ProvinceNS
	ProvinceNT = internaldomain.ProvinceNT
	ProvinceNU = internaldomain.ProvinceNU
	ProvinceON = internaldomain.ProvinceON
	ProvincePE = internaldomain.ProvincePE
	ProvinceQC = internaldomain.ProvinceQC
	ProvinceSK = internaldomain.ProvinceSK
	ProvinceYT = internaldomain.ProvinceYT
)

// Provinces returns every recognized code in alphabetical order.
func Provinces() []Province {
	return internaldomain.Provinces()
}

// ParseProvince normalizes a province code, accepting lowercase input.
func ParseProvince(input string) (Province, bool) {
	return internaldomain.ParseProvince(input)
}

// Role describes what a family member is allowed to do within a family.
type Role = internaldomain.Role

const (
	// RoleOwner manages the family, its members, and billing.
	RoleOwner = internaldomain.RoleOwner
	// RoleCaregiver records usage and manages children and inventory.
	RoleCaregiver = internaldomain.RoleCaregiver
	// RoleViewer has read-only access to family data.
	RoleViewer = internaldomain.RoleViewer
)

// ParseRole normalizes a role label.
func ParseRole(input string) (Role, bool) {
	return internaldomain.ParseRole(input)
}

// Channel identifies a notification delivery channel.
type Channel = internaldomain.Channel

const (
	ChannelInApp = internaldomain.ChannelInApp
	ChannelEmail = internaldomain.ChannelEmail
	ChannelPush  = internaldomain.ChannelPush
)
