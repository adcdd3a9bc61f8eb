package flat

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"service-meetings/internal/domain"
)

// MissingColumnsError reports a structural import failure: a required
// column is absent even after header detection. It is raised before any
// mutation, so partial imports never happen from a structural failure.
type MissingColumnsError struct {
	Missing []domain.Field
}

func (e *MissingColumnsError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = f.Header()
	}
	return "missing required columns: " + strings.Join(names, ", ")
}

// ParseBatch reads an uploaded tabular file into an import batch. Column
// names match case-insensitively and the header row may sit a few rows
// into the file. Rows that are entirely blank are dropped; all other rows
// pass through; field-level validation belongs to reconciliation, not
// parsing.
func ParseBatch(r io.Reader, required []domain.Field) (domain.ImportBatch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}

	columns, start, ok := detectHeader(rows, required)
	if !ok {
		return nil, &MissingColumnsError{Missing: required}
	}

	var missing []domain.Field
	for _, f := range required {
		if !containsField(columns, f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	var batch domain.ImportBatch
	for i, row := range rows[start:] {
		if rowBlank(row) {
			continue
		}
		br := domain.BatchRow{Row: start + i + 1, Fields: make(map[domain.Field]string)}
		for col, field := range columns {
			if col >= len(row) {
				continue
			}
			if field == domain.FieldID {
				br.Identity = row[col]
				continue
			}
			br.Fields[field] = row[col]
		}
		batch = append(batch, br)
	}
	return batch, nil
}

// ValidateBatch checks rows against the required-field set and returns
// one message per violation, numbered by source-file row so the report
// is actionable. A row whose primary field (the first required one) is
// blank is treated as an empty placeholder: it may still be imported and
// is exempt from the remaining requirements. An empty result means the
// batch may be imported.
func ValidateBatch(batch domain.ImportBatch, required []domain.Field) []string {
	if len(required) == 0 {
		return nil
	}
	primary := required[0]
	var problems []string
	for i, row := range batch {
		if domain.IsBlank(row.Fields[primary]) {
			continue
		}
		for _, f := range required[1:] {
			if f == domain.FieldID {
				continue
			}
			if domain.IsBlank(row.Fields[f]) {
				problems = append(problems, fmt.Sprintf("row %d: %s is required", rowNumber(row, i), f.Header()))
			}
		}
	}
	return problems
}

// rowNumber prefers the position captured at parse time; hand-built
// batches without one fall back to the batch index.
func rowNumber(row domain.BatchRow, idx int) int {
	if row.Row > 0 {
		return row.Row
	}
	return idx + 1
}
