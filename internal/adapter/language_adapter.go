package adapter

import (
	"path/filepath"
	"regexp"
	"strings"

	m "github.com/samir-djili/obfuscator/internal/model"
)

// LanguageDetector identifies the grammar of a source file so the workflow
// can skip everything the pipeline does not understand.
type LanguageDetector interface {
	Detect(path m.Path, content []byte) m.Language
}

type languageDetector struct{}

// NewLanguageDetector returns the extension, shebang, and content based
// detector.
func NewLanguageDetector() LanguageDetector {
	return &languageDetector{}
}

var extLanguages = map[string]m.Language{
	".py":  m.LangPython,
	".pyw": m.LangPython,
	".js":  m.LangJavaScript,
	".mjs": m.LangJavaScript,
	".cjs": m.LangJavaScript,
	".go":  m.LangGo,
}

var pythonHints = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*def\s+\w+\s*\(`),
	regexp.MustCompile(`(?m)^\s*import\s+\w`),
	regexp.MustCompile(`(?m)^\s*from\s+[.\w]+\s+import\s`),
	regexp.MustCompile(`(?m)^\s*class\s+\w+\s*[(:]`),
	regexp.MustCompile(`(?m)^\s*if\s+__name__\s*==`),
}

// Detect implements LanguageDetector. Extension wins; extensionless files
// fall back to the shebang line and then to content heuristics.
func (d *languageDetector) Detect(path m.Path, content []byte) m.Language {
	if lang, ok := extLanguages[strings.ToLower(filepath.Ext(string(path)))]; ok {
		return lang
	}

	text := string(content)

	if strings.HasPrefix(text, "#!") {
		line, _, _ := strings.Cut(text, "\n")

		switch {
		case strings.Contains(line, "python"):
			return m.LangPython
		case strings.Contains(line, "node"):
			return m.LangJavaScript
		}
	}

	hits := 0

	for _, re := range pythonHints {
		if re.MatchString(text) {
			hits++
		}
	}

	if hits >= 2 {
		return m.LangPython
	}

	return m.LangUnknown
}
