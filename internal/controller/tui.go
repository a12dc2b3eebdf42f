package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	m "github.com/samir-djili/obfuscator/internal/model"
)

// TUI implements UI using Bubble Tea: a progress bar over the run with the
// summary table printed once the run finishes.
type TUI struct {
	output  io.Writer
	program *tea.Program
	done    chan struct{}
	once    sync.Once
}

// NewTUI creates a new TUI writing to output.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output, done: make(chan struct{})}
}

type fileStartedMsg struct{ path m.Path }

type fileFinishedMsg struct{ report m.FileReport }

type runFinishedMsg struct{}

// Start implements UI.
func (t *TUI) Start(ctx context.Context, total int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	model := newRunModel(total)

	if f, ok := t.output.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			model.width = width
		}
	}

	t.program = tea.NewProgram(model, tea.WithOutput(t.output))

	go func() {
		defer close(t.done)

		if _, err := t.program.Run(); err != nil {
			fmt.Fprintf(t.output, "ui error: %v\n", err)
		}
	}()

	return nil
}

// FileStarted implements UI.
func (t *TUI) FileStarted(ctx context.Context, path m.Path) {
	if ctx.Err() != nil || t.program == nil {
		return
	}

	t.program.Send(fileStartedMsg{path: path})
}

// FileFinished implements UI.
func (t *TUI) FileFinished(ctx context.Context, report m.FileReport) {
	if ctx.Err() != nil || t.program == nil {
		return
	}

	t.program.Send(fileFinishedMsg{report: report})
}

// DisplaySummary implements UI. The summary is plain text printed after the
// interactive part has shut down, so it survives in scrollback.
func (t *TUI) DisplaySummary(ctx context.Context, reports []m.FileReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.stop()

	_, err := fmt.Fprintf(t.output, "\n%s", renderSummaryTable(reports))

	return err
}

// DisplayTechniques implements UI.
func (t *TUI) DisplayTechniques(ctx context.Context, descriptors []m.TechniqueDescriptor) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := fmt.Fprint(t.output, renderTechniqueTable(descriptors))

	return err
}

// Close implements UI.
func (t *TUI) Close(ctx context.Context) {
	_ = ctx

	t.stop()
}

// Wait implements UI.
func (t *TUI) Wait(ctx context.Context) {
	if t.program == nil {
		return
	}

	select {
	case <-ctx.Done():
	case <-t.done:
	}
}

func (t *TUI) stop() {
	if t.program == nil {
		return
	}

	t.once.Do(func() {
		t.program.Send(runFinishedMsg{})
		<-t.done
	})
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	currentStyle = lipgloss.NewStyle().Faint(true)
)

// runModel is the Bubble Tea model for a run in flight.
type runModel struct {
	total   int
	done    int
	current string
	width   int
	bar     progress.Model
}

func newRunModel(total int) runModel {
	bar := progress.New(progress.WithDefaultGradient())

	return runModel{total: total, width: 80, bar: bar}
}

// Init implements tea.Model.
func (rm runModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (rm runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		rm.width = msg.Width
		rm.bar.Width = min(msg.Width-4, 60)

		return rm, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return rm, tea.Quit
		}

		return rm, nil

	case fileStartedMsg:
		rm.current = string(msg.path)
		return rm, nil

	case fileFinishedMsg:
		rm.done++
		return rm, rm.bar.SetPercent(rm.percent())

	case runFinishedMsg:
		return rm, tea.Quit

	case progress.FrameMsg:
		bar, cmd := rm.bar.Update(msg)
		if b, ok := bar.(progress.Model); ok {
			rm.bar = b
		}

		return rm, cmd
	}

	return rm, nil
}

// View implements tea.Model.
func (rm runModel) View() string {
	header := titleStyle.Render(fmt.Sprintf("obfuscating %d/%d", rm.done, rm.total))

	line := ""
	if rm.current != "" {
		line = currentStyle.Render(rm.current)
	}

	return fmt.Sprintf("%s\n%s\n%s\n", header, rm.bar.View(), line)
}

func (rm runModel) percent() float64 {
	if rm.total == 0 {
		return 1
	}

	return float64(rm.done) / float64(rm.total)
}
