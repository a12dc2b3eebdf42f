package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	m "github.com/samir-djili/obfuscator/internal/model"
)

func TestReportStore_RoundTrip(t *testing.T) {
	store := NewReportStore()
	path := m.Path(filepath.Join(t.TempDir(), "run.yaml"))

	in := []m.FileReport{
		{
			Source:     "a.py",
			Target:     "a_obf.py",
			Hash:       "deadbeef",
			InputSize:  10,
			OutputSize: 42,
			Result: m.PipelineResult{
				Applied:          []m.TechniqueName{m.TechniqueStringEncoding},
				FallbackOccurred: true,
				Seed:             7,
				Diagnostics:      []m.Diagnostic{{Severity: m.SeverityWarning, Message: "dropped dead_code"}},
				Renames:          m.RenameMap{"secret": "_v1"},
			},
		},
		{Source: "b.txt", Hash: "cafe", Skipped: true, SkipReason: "language not recognized"},
	}

	require.NoError(t, store.SaveReports(path, in))

	out, err := store.LoadReports(path)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestReportStore_LoadMissingFile(t *testing.T) {
	_, err := NewReportStore().LoadReports(m.Path(filepath.Join(t.TempDir(), "absent.yaml")))
	require.Error(t, err)
}

func TestReportStore_LoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o600))

	_, err := NewReportStore().LoadReports(m.Path(path))
	require.Error(t, err)
}
