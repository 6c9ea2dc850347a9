package domain

import (
	"sort"
	"strings"
)

// DiaperSize identifies a diaper size band on the Canadian retail scale.
type DiaperSize string

const (
	SizeNewborn DiaperSize = "newborn"
	Size1       DiaperSize = "size_1"
	Size2       DiaperSize = "size_2"
	Size3       DiaperSize = "size_3"
	Size4       DiaperSize = "size_4"
	Size5       DiaperSize = "size_5"
	Size6       DiaperSize = "size_6"
	Size7       DiaperSize = "size_7"
)

var diaperSizes = []DiaperSize{
	SizeNewborn, Size1, Size2, Size3, Size4, Size5, Size6, Size7,
}

// DiaperSizes returns the size scale in ascending order.
func DiaperSizes() []DiaperSize {
	out := make([]DiaperSize, len(diaperSizes))
	copy(out, diaperSizes)
	return out
}

// Valid reports whether the size is a known scale value.
func (s DiaperSize) Valid() bool {
	return s.Index() >= 0
}

// Index returns the position of the size on the scale, or -1 when unknown.
func (s DiaperSize) Index() int {
	for i, size := range diaperSizes {
		if size == s {
			return i
		}
	}
	return -1
}

// Next returns the following size on the scale. The second return is false
// when the size is already the largest or unknown.
func (s DiaperSize) Next() (DiaperSize, bool) {
	idx := s.Index()
	if idx < 0 || idx >= len(diaperSizes)-1 {
		return s, false
	}
	return diaperSizes[idx+1], true
}

// ParseDiaperSize normalizes user supplied size labels. It accepts the
// canonical values plus the short retail forms ("nb", "1".."7", "size 3").
func ParseDiaperSize(input string) (DiaperSize, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "nb", "newborn":
		return SizeNewborn, true
	case "1", "2", "3", "4", "5", "6", "7":
		return DiaperSize("size_" + normalized), true
	}
	if !strings.HasPrefix(normalized, "size_") {
		normalized = "size_" + normalized
	}
	size := DiaperSize(normalized)
	if size.Valid() {
		return size, true
	}
	return "", false
}

// Province is a two letter Canadian province or territory code.
type Province string

const (
	ProvinceAB Province = "AB"
	ProvinceBC Province = "BC"
	ProvinceMB Province = "MB"
	ProvinceNB Province = "NB"
	ProvinceNL Province = "NL"
	ProvinceNS Province = "NS"
	ProvinceNT Province = "NT"
	ProvinceNU Province = "NU"
	ProvinceON Province = "ON"
	ProvincePE Province = "PE"
	ProvinceQC Province = "QC"
	ProvinceSK Province = "SK"
	ProvinceYT Province = "YT"
)

var provinces = map[Province]string{
	ProvinceAB: "Alberta",
	ProvinceBC: "British Columbia",
	ProvinceMB: "Manitoba",
	ProvinceNB: "New Brunswick",
	ProvinceNL: "Newfoundland and Labrador",
	ProvinceNS: "Nova Scotia",
	ProvinceNT: "Northwest Territories",
	ProvinceNU: "Nunavut",
	ProvinceON: "Ontario",
	ProvincePE: "Prince Edward Island",
	ProvinceQC: "Quebec",
	ProvinceSK: "Saskatchewan",
	ProvinceYT: "Yukon",
}

// Provinces returns every recognized code in alphabetical order.
func Provinces() []Province {
	out := make([]Province, 0, len(provinces))
	for code := range provinces {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Valid reports whether the code is a recognized province or territory.
func (p Province) Valid() bool {
	_, ok := provinces[p]
	return ok
}

// Name returns the full province name, or an empty string for unknown codes.
func (p Province) Name() string {
	return provinces[p]
}

// ParseProvince normalizes a province code, accepting lowercase input.
func ParseProvince(input string) (Province, bool) {
	code := Province(strings.ToUpper(strings.TrimSpace(input)))
	if code.Valid() {
		return code, true
	}
	return "", false
}

// Channel identifies a notification delivery channel.
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

// Valid reports whether the channel is supported.
func (c Channel) Valid() bool {
	switch c {
	case ChannelInApp, ChannelEmail, ChannelPush:
		return true
	default:
		return false
	}
}
