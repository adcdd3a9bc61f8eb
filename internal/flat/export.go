package flat

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"service-meetings/internal/domain"
)

// Export writes a full-collection snapshot to a timestamped file in dir
// and returns its path. The file has the same tabular shape as the
// backing snapshot, so exports can be hand-edited and re-imported.
func Export(dir string, kind domain.Kind, c domain.Collection, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export dir: %w", err)
	}
	name := fmt.Sprintf("%s_export_%s.csv", kind, now.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export: %w", err)
	}
	if err := writeCSV(f, c); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export: %w", err)
	}
	return path, nil
}
