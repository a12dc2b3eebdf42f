package domain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	m "github.com/samir-djili/obfuscator/internal/model"
)

// Validator is the gate every candidate output must pass before it replaces
// the original text.
type Validator interface {
	Validate(ctx context.Context, source string) error
}

type validator struct {
	smokeTest bool
}

// NewValidator constructs the lexical validity gate. With smokeTest enabled
// it additionally byte-compiles the candidate with the system python3 when
// one is installed.
func NewValidator(smokeTest bool) Validator {
	return &validator{smokeTest: smokeTest}
}

// Validate re-scans the candidate and checks bracket balance; both must hold
// for text that claims to be runnable. The scan alone catches unterminated
// literals, the balance check catches structural damage inside code.
func (v *validator) Validate(ctx context.Context, source string) error {
	spans, err := Scan(source)
	if err != nil {
		return fmt.Errorf("rescan: %w", err)
	}

	if err := checkBracketBalance(spans); err != nil {
		return err
	}

	if v.smokeTest {
		return byteCompile(ctx, source)
	}

	return nil
}

func checkBracketBalance(spans []m.Span) error {
	depth := 0

	for _, s := range spans {
		if s.Kind != m.SpanCode {
			continue
		}

		for i := 0; i < len(s.Text); i++ {
			switch s.Text[i] {
			case '(', '[', '{':
				depth++
			case ')', ']', '}':
				depth--
				if depth < 0 {
					return fmt.Errorf("unbalanced brackets: closer without opener")
				}
			}
		}
	}

	if depth != 0 {
		return fmt.Errorf("unbalanced brackets: %d left open", depth)
	}

	return nil
}

// byteCompile runs `python3 -m py_compile` on the candidate. A missing
// interpreter skips the check rather than failing the run.
func byteCompile(ctx context.Context, source string) error {
	python, err := exec.LookPath("python3")
	if err != nil {
		slog.Debug("python3 not found, skipping smoke test")
		return nil
	}

	dir, err := os.MkdirTemp("", "obfuscator-smoke-*")
	if err != nil {
		return fmt.Errorf("smoke test temp dir: %w", err)
	}

	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("failed to clean smoke test dir", "dir", dir, "error", err)
		}
	}()

	path := filepath.Join(dir, "candidate.py")
	if err := os.WriteFile(path, []byte(source), 0o600); err != nil {
		return fmt.Errorf("smoke test write: %w", err)
	}

	out, err := exec.CommandContext(ctx, python, "-m", "py_compile", path).CombinedOutput()
	if err != nil {
		return fmt.Errorf("py_compile: %v: %s", err, out)
	}

	return nil
}
