// Package controller provides output adapters for displaying obfuscation
// progress and results.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "github.com/samir-djili/obfuscator/internal/model"
)

// UI is the interface the workflow drives while processing files.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	// Start prepares the UI for a run over total files.
	Start(ctx context.Context, total int) error
	// FileStarted announces that a file entered the pipeline.
	FileStarted(ctx context.Context, path m.Path)
	// FileFinished reports one completed file.
	FileFinished(ctx context.Context, report m.FileReport)
	// DisplaySummary renders the per-file outcome table after a run.
	DisplaySummary(ctx context.Context, reports []m.FileReport) error
	// DisplayTechniques renders the technique table for the list command.
	DisplayTechniques(ctx context.Context, descriptors []m.TechniqueDescriptor) error
	// Close releases the UI.
	Close(ctx context.Context)
	// Wait blocks until the UI is dismissed by the user, when interactive.
	Wait(ctx context.Context)
}

// NewUI picks the interactive TUI when stdout is a terminal and the plain
// printer otherwise.
func NewUI(cmd *cobra.Command, interactive, verbose bool) UI {
	if interactive {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd, verbose)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
