package adapter

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	m "github.com/samir-djili/obfuscator/internal/model"
)

// ReportStore persists run reports so later invocations (and the diff
// command) can inspect what a run did.
type ReportStore interface {
	SaveReports(path m.Path, reports []m.FileReport) error
	LoadReports(path m.Path) ([]m.FileReport, error)
}

type yamlReportStore struct{}

// NewReportStore returns the YAML-backed report store.
func NewReportStore() ReportStore {
	return &yamlReportStore{}
}

type reportFile struct {
	GeneratedAt time.Time      `yaml:"generated_at"`
	Reports     []m.FileReport `yaml:"reports"`
}

// SaveReports implements ReportStore.
func (s *yamlReportStore) SaveReports(path m.Path, reports []m.FileReport) error {
	data, err := yaml.Marshal(reportFile{
		GeneratedAt: time.Now().UTC(),
		Reports:     reports,
	})
	if err != nil {
		return fmt.Errorf("marshal reports: %w", err)
	}

	if err := os.WriteFile(string(path), data, 0o600); err != nil {
		return fmt.Errorf("write reports %s: %w", path, err)
	}

	return nil
}

// LoadReports implements ReportStore.
func (s *yamlReportStore) LoadReports(path m.Path) ([]m.FileReport, error) {
	data, err := os.ReadFile(string(path))
	if err != nil {
		return nil, fmt.Errorf("read reports %s: %w", path, err)
	}

	var rf reportFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse reports %s: %w", path, err)
	}

	return rf.Reports, nil
}
