// Package config holds the application-level settings that product
// iterations kept changing: which import columns are required, which
// columns free-text search covers, the assumed meeting duration and the
// status refresh schedule. Infrastructure settings (database URL, listen
// address) stay in environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"service-meetings/internal/domain"
)

type Config struct {
	// DataDir holds the flat snapshot files and exports.
	DataDir string `yaml:"data_dir"`

	// MeetingDurationMinutes is the assumed length of a meeting; the
	// record template carries no end time.
	MeetingDurationMinutes int `yaml:"meeting_duration_minutes"`

	// RequiredImportColumns names the columns an import file must carry.
	// The first entry is the primary field. The requirement set shrank
	// release to release, so it is configuration rather than a constant.
	RequiredImportColumns []string `yaml:"required_import_columns"`

	// SearchColumns names the text columns free-text search covers.
	SearchColumns []string `yaml:"search_columns"`

	// RefreshCron is a cron-style schedule for the automatic status
	// recompute pass.
	RefreshCron string `yaml:"refresh"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:                "data",
		MeetingDurationMinutes: 60,
		RequiredImportColumns:  []string{string(domain.FieldOrganization)},
		SearchColumns:          nil,
		RefreshCron:            "* * * * *",
	}
}

// Normalize fills missing values so partially filled config files from
// older versions still behave.
func (c *Config) Normalize() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.MeetingDurationMinutes <= 0 {
		c.MeetingDurationMinutes = 60
	}
	if len(c.RequiredImportColumns) == 0 {
		c.RequiredImportColumns = []string{string(domain.FieldOrganization)}
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "* * * * *"
	}
}

// RequiredFields resolves the configured column names to canonical fields.
func (c *Config) RequiredFields() ([]domain.Field, error) {
	return resolveFields(c.RequiredImportColumns)
}

// SearchFields resolves the configured search columns. An empty list
// means the caller should fall back to the default search set.
func (c *Config) SearchFields() ([]domain.Field, error) {
	return resolveFields(c.SearchColumns)
}

func resolveFields(names []string) ([]domain.Field, error) {
	fields := make([]domain.Field, 0, len(names))
	for _, name := range names {
		f, ok := domain.FieldForHeader(name)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// Load reads the YAML config at path. A missing file is a first run: a
// default config is written there and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the config atomically via a temp file and rename.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".meetings-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
