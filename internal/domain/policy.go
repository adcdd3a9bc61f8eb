package domain

import "fmt"

// MergeMode selects which batch partitions a reconcile pass applies.
type MergeMode string

const (
	// AddOnly imports only rows whose identity is absent from the
	// existing collection; matching rows are discarded.
	AddOnly MergeMode = "add"
	// UpdateOnly applies only rows whose identity already exists. A batch
	// with no matches is a no-op, not an error.
	UpdateOnly MergeMode = "update"
	// UpdateAndAdd applies both partitions. Default mode.
	UpdateAndAdd MergeMode = "update_and_add"
)

// MergePolicy configures one reconcile call.
type MergePolicy struct {
	Mode MergeMode
	// OverwriteStatus permits the batch to replace the stored lifecycle
	// state of existing records, including manually overridden ones.
	OverwriteStatus bool
}

// ParseMergeMode accepts both the wire names and the legacy import-form
// labels.
func ParseMergeMode(s string) (MergeMode, error) {
	switch s {
	case "", string(UpdateAndAdd), "Update & Add New":
		return UpdateAndAdd, nil
	case string(AddOnly), "Add New Only":
		return AddOnly, nil
	case string(UpdateOnly), "Update Existing":
		return UpdateOnly, nil
	default:
		return "", fmt.Errorf("unknown merge mode %q", s)
	}
}

// BatchRow is one raw imported row: the identity cell as read from the
// file plus the cells for every column the file actually carried. Fields
// not present in the file stay absent so reconciliation can distinguish
// "blank cell" from "column missing".
type BatchRow struct {
	// Row is the 1-based position of the row in the source file,
	// counting banner and header rows, so validation messages point at
	// the row the user actually sees.
	Row      int
	Identity string
	Fields   map[Field]string
}

// ImportBatch is a transient ordered row list consumed by reconciliation
// and then discarded; it is never persisted.
type ImportBatch []BatchRow
