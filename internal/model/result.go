package model

// Severity grades a diagnostic message.
type Severity string

// Diagnostic severities.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is one message produced during a pipeline run, consumed by the
// logging collaborator and persisted with the run report.
type Diagnostic struct {
	Severity Severity `yaml:"severity"`
	Message  string   `yaml:"message"`
}

// PipelineResult is the outcome of one pipeline run over one source unit.
type PipelineResult struct {
	// Output is the final text. When the validity gate exhausts its retry
	// bound this is the untouched input, never broken text.
	Output string `yaml:"-"`
	// Applied lists the techniques that survived validation, in the order
	// they ran. Empty when the run fell back to the original.
	Applied []TechniqueName `yaml:"applied"`
	// FallbackOccurred is set whenever the gate had to reduce the technique
	// set, including the terminal fall-back-to-original case.
	FallbackOccurred bool `yaml:"fallback_occurred"`
	// Diagnostics carries warnings and informational notes from the run.
	Diagnostics []Diagnostic `yaml:"diagnostics,omitempty"`
	// Seed is the effective RNG seed, recorded for reproducibility.
	Seed int64 `yaml:"seed"`
	// Renames is the identifier mapping applied by the renaming technique,
	// empty when it did not run.
	Renames RenameMap `yaml:"renames,omitempty"`
}

// FellBackToOriginal reports whether the run emitted the untouched input.
func (r PipelineResult) FellBackToOriginal() bool {
	return r.FallbackOccurred && len(r.Applied) == 0
}

// FileReport pairs a source file with its pipeline result for persistence.
type FileReport struct {
	Source     Path           `yaml:"source"`
	Target     Path           `yaml:"target,omitempty"`
	Hash       string         `yaml:"hash"`
	InputSize  int            `yaml:"input_size"`
	OutputSize int            `yaml:"output_size"`
	Result     PipelineResult `yaml:"result"`
	Skipped    bool           `yaml:"skipped,omitempty"`
	SkipReason string         `yaml:"skip_reason,omitempty"`
	// Failed marks a file whose run aborted with a fatal error. No output is
	// written for a failed file.
	Failed bool   `yaml:"failed,omitempty"`
	Error  string `yaml:"error,omitempty"`
}
