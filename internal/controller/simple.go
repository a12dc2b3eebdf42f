package controller

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "github.com/samir-djili/obfuscator/internal/model"
)

// SimpleUI implements UI using cobra Command's Println. It is the
// non-interactive default, safe for pipes and CI logs.
type SimpleUI struct {
	cmd     *cobra.Command
	verbose bool
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command, verbose bool) *SimpleUI {
	return &SimpleUI{cmd: cmd, verbose: verbose}
}

// Start implements UI.
func (s *SimpleUI) Start(ctx context.Context, total int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("obfuscating %d file(s)\n", total)

	return nil
}

// FileStarted implements UI.
func (s *SimpleUI) FileStarted(ctx context.Context, path m.Path) {
	if ctx.Err() != nil {
		return
	}

	if s.verbose {
		s.printf("  %s ...\n", path)
	}
}

// FileFinished implements UI.
func (s *SimpleUI) FileFinished(ctx context.Context, report m.FileReport) {
	if ctx.Err() != nil {
		return
	}

	switch {
	case report.Skipped:
		s.printf("  skip  %s (%s)\n", report.Source, report.SkipReason)
	case report.Failed:
		s.printf("  fail  %s (%s)\n", report.Source, report.Error)
	case report.Result.FellBackToOriginal():
		s.printf("  keep  %s (no valid output)\n", report.Source)
	default:
		s.printf("  done  %s -> %s\n", report.Source, report.Target)
	}
}

// DisplaySummary implements UI.
func (s *SimpleUI) DisplaySummary(ctx context.Context, reports []m.FileReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderSummaryTable(reports))

	return nil
}

// DisplayTechniques implements UI.
func (s *SimpleUI) DisplayTechniques(ctx context.Context, descriptors []m.TechniqueDescriptor) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderTechniqueTable(descriptors))

	return nil
}

// Close implements UI.
func (s *SimpleUI) Close(ctx context.Context) {
	_ = ctx
}

// Wait implements UI. SimpleUI just prints and continues.
func (s *SimpleUI) Wait(ctx context.Context) {
	_ = ctx
}

func (s *SimpleUI) printf(format string, args ...any) {
	s.cmd.Printf(format, args...)
}

func renderSummaryTable(reports []m.FileReport) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"File", "Status", "Techniques", "Size"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	obfuscated, skipped, fallbacks, failed := 0, 0, 0, 0

	for _, r := range reports {
		status := "obfuscated"
		techniques := joinTechniques(r.Result.Applied)
		size := fmt.Sprintf("%d -> %d", r.InputSize, r.OutputSize)

		switch {
		case r.Skipped:
			status = "skipped"
			techniques = r.SkipReason
			size = strconv.Itoa(r.InputSize)
			skipped++
		case r.Failed:
			status = "failed"
			techniques = r.Error
			size = strconv.Itoa(r.InputSize)
			failed++
		case r.Result.FellBackToOriginal():
			status = "original kept"
			techniques = "-"
			fallbacks++
		default:
			obfuscated++
		}

		table.Append([]string{string(r.Source), status, techniques, size})
	}

	table.Render()

	fmt.Fprintf(&buf, "\n%d obfuscated, %d skipped, %d kept original, %d failed\n",
		obfuscated, skipped, fallbacks, failed)

	return buf.String()
}

func renderTechniqueTable(descriptors []m.TechniqueDescriptor) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Technique", "Min Level", "Order"})
	table.SetBorder(false)

	for _, d := range descriptors {
		table.Append([]string{string(d.Name), strconv.Itoa(d.MinLevel), strconv.Itoa(d.Priority)})
	}

	table.Render()

	return buf.String()
}

func joinTechniques(names []m.TechniqueName) string {
	if len(names) == 0 {
		return "-"
	}

	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}

	return strings.Join(parts, ", ")
}
