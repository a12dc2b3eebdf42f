package model

// NamePattern selects the name-space used for generated identifiers.
type NamePattern string

// Available name patterns.
const (
	NameRandom     NamePattern = "random"
	NameHex        NamePattern = "hex"
	NameSequential NamePattern = "sequential"
)

// StringEncoding selects the reconstruction strategy for string literals.
type StringEncoding string

// Available string encodings.
const (
	EncodingCharCode StringEncoding = "charcode"
	EncodingHex      StringEncoding = "hex"
	EncodingBase64   StringEncoding = "base64"
)

// Levels recognized by the pipeline.
const (
	LevelBasic        = 1
	LevelIntermediate = 2
	LevelAdvanced     = 3
	LevelExpert       = 4
)

// Config is the resolved per-run pipeline configuration. One pipeline run is
// a pure function from (source text, Config) to PipelineResult; nothing in
// here is mutated by a run.
type Config struct {
	// Level selects a technique bundle (1..4) when Techniques is empty.
	Level int `yaml:"level"`
	// Techniques, when non-empty, overrides the level bundle with an explicit
	// ordered set of technique names.
	Techniques []TechniqueName `yaml:"techniques,omitempty"`
	// NamePattern picks the generated-identifier name-space.
	NamePattern NamePattern `yaml:"name_pattern"`
	// StringEncoding picks the literal reconstruction strategy.
	StringEncoding StringEncoding `yaml:"string_encoding"`
	// RandomizeSeed derives a fresh seed per run; when false, Seed is used as
	// given so runs are reproducible.
	RandomizeSeed bool `yaml:"randomize_seed"`
	// Seed is the RNG seed used when RandomizeSeed is false. The effective
	// seed is always reported in diagnostics.
	Seed int64 `yaml:"seed"`
	// ExcludedPatterns lists substrings; any identifier containing one is
	// never renamed. Entry points live here by default.
	ExcludedPatterns []string `yaml:"excluded_patterns,omitempty"`
	// DeadCodeDensity is the per-boundary insertion probability (0..1).
	DeadCodeDensity float64 `yaml:"dead_code_density"`
	// SmokeTest additionally byte-compiles the output with python3 when the
	// interpreter is available.
	SmokeTest bool `yaml:"smoke_test"`
	// MaxRetries bounds the Reducing loop of the validity gate.
	MaxRetries int `yaml:"max_retries"`
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		Level:           LevelIntermediate,
		NamePattern:     NameRandom,
		StringEncoding:  EncodingCharCode,
		RandomizeSeed:   true,
		DeadCodeDensity: 0.05,
		MaxRetries:      4,
		ExcludedPatterns: []string{
			"main",
			"__init__",
			"__main__",
		},
	}
}
