package domain

import "strings"

// IsBlank reports whether a raw cell value is effectively empty. Spreadsheet
// round trips produce "nan", "none", "null" and "nat" strings for missing
// values, so those count as blank everywhere a field is tested for presence.
func IsBlank(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "nan", "none", "null", "nat":
		return true
	default:
		return false
	}
}
