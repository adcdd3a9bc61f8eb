// Package flat reads and writes the tabular snapshot files that back the
// record collections when the relational store is unavailable, plus the
// import/export surfaces that share their format.
package flat

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"service-meetings/internal/domain"
	"service-meetings/internal/reconcile"
)

// headerScanLimit bounds how many leading rows are searched for a header
// row: exports made by hand sometimes carry a title line or two first.
const headerScanLimit = 5

// Store is a full-collection snapshot file for one record kind. Snapshots
// are written whole; there is no incremental diff format.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Write replaces the snapshot with the given collection. The write goes
// through a temp file and rename so a crash cannot leave a torn snapshot.
func (s *Store) Write(c domain.Collection) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeCSV(tmp, c); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("snapshot rename: %w", err)
	}
	return nil
}

// Read loads the snapshot. A missing file yields an empty collection:
// first runs have nothing to restore. Legacy column spellings from older
// releases are migrated onto the canonical fields during the read, so no
// later code branches on which columns a file happened to have.
func (s *Store) Read(kind domain.Kind) (domain.Collection, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Collection{}, nil
		}
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	columns, start, ok := detectHeader(rows, []domain.Field{domain.FieldID, domain.FieldOrganization, domain.FieldTitle})
	if !ok {
		return domain.Collection{}, nil
	}

	var out domain.Collection
	for _, row := range rows[start:] {
		if rowBlank(row) {
			continue
		}
		rec := domain.Record{Kind: kind}
		for col, field := range columns {
			if col >= len(row) {
				continue
			}
			cell := row[col]
			switch field {
			case domain.FieldID:
				rec.ID = reconcile.CoerceIdentity(cell)
			case domain.FieldStatus:
				if st := domain.Status(strings.TrimSpace(cell)); st.Valid() {
					rec.Status = st
				}
			default:
				rec.Apply(field, cell)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func writeCSV(f *os.File, c domain.Collection) error {
	w := csv.NewWriter(f)
	header := make([]string, len(domain.AllFields))
	for i, field := range domain.AllFields {
		header[i] = field.Header()
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range c {
		row := make([]string, len(domain.AllFields))
		for i, field := range domain.AllFields {
			row[i] = rec.Value(field)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// detectHeader scans the first few rows for one containing a cell that
// resolves to any of the wanted fields. It returns the column->field
// mapping and the index of the first data row.
func detectHeader(rows [][]string, wanted []domain.Field) (map[int]domain.Field, int, bool) {
	limit := headerScanLimit
	if limit > len(rows) {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		columns := mapColumns(rows[i])
		for _, w := range wanted {
			if containsField(columns, w) {
				return columns, i + 1, true
			}
		}
	}
	return nil, 0, false
}

func mapColumns(row []string) map[int]domain.Field {
	columns := make(map[int]domain.Field)
	for i, cell := range row {
		if f, ok := domain.FieldForHeader(cell); ok {
			if _, taken := invert(columns)[f]; !taken {
				columns[i] = f
			}
		}
	}
	return columns
}

func containsField(columns map[int]domain.Field, f domain.Field) bool {
	for _, have := range columns {
		if have == f {
			return true
		}
	}
	return false
}

func invert(columns map[int]domain.Field) map[domain.Field]int {
	out := make(map[domain.Field]int, len(columns))
	for i, f := range columns {
		out[f] = i
	}
	return out
}

func rowBlank(row []string) bool {
	for _, cell := range row {
		if !domain.IsBlank(cell) {
			return false
		}
	}
	return true
}
