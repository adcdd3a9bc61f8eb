package reconcile

import (
	"context"
	"math"
	"strconv"
	"strings"

	"service-meetings/internal/domain"
)

// Sequencer hands out identities from an authoritative source, normally
// the relational backend's atomic sequence. Reconciliation falls back to
// in-memory max+1 allocation when the sequencer is absent or failing.
type Sequencer interface {
	NextIdentity(ctx context.Context) (int64, error)
}

// NextIdentity returns max(existing identities)+1, or 1 for a collection
// that is empty or holds no valid numeric identity.
func NextIdentity(c domain.Collection) int64 {
	return c.MaxIdentity() + 1
}

// CoerceIdentity reads an identity cell. Blank, non-numeric, NaN-like and
// non-positive values all count as missing (0): a corrupt placeholder is
// re-allocated rather than trusted.
func CoerceIdentity(raw string) int64 {
	trimmed := strings.TrimSpace(raw)
	if domain.IsBlank(trimmed) {
		return 0
	}
	if id, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		if id > 0 {
			return id
		}
		return 0
	}
	// Spreadsheet numeric cells round-trip as floats ("7.0").
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || f <= 0 || f != math.Trunc(f) {
		return 0
	}
	return int64(f)
}
