package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/samir-djili/obfuscator/internal/adapter"
	"github.com/samir-djili/obfuscator/internal/controller"
	m "github.com/samir-djili/obfuscator/internal/model"
	"github.com/samir-djili/obfuscator/pkg"
)

// RunArgs parameterizes one workflow run.
type RunArgs struct {
	// Paths are the input files or directories.
	Paths []string
	// OutDir, when set, receives outputs mirroring each input's layout.
	// When empty, outputs are written next to their inputs with Suffix.
	OutDir string
	// Suffix names sibling outputs, e.g. "_obf" turns app.py into app_obf.py.
	Suffix string
	// Reports, when set, is where the YAML run report is written.
	Reports string
	// Threads bounds concurrent file runs.
	Threads int
}

// Workflow drives the whole run: collect files, push each through the
// pipeline, write outputs, and persist the report.
type Workflow interface {
	Run(ctx context.Context, args RunArgs) ([]m.FileReport, error)
}

type workflow struct {
	fs       adapter.SourceFSAdapter
	detector adapter.LanguageDetector
	reports  adapter.ReportStore
	ui       controller.UI
	pipeline Obfuscator
}

// NewWorkflow constructs a Workflow with the provided collaborators.
func NewWorkflow(
	fs adapter.SourceFSAdapter,
	detector adapter.LanguageDetector,
	reports adapter.ReportStore,
	ui controller.UI,
	pipeline Obfuscator,
) Workflow {
	return &workflow{
		fs:       fs,
		detector: detector,
		reports:  reports,
		ui:       ui,
		pipeline: pipeline,
	}
}

// sourceEntry pairs a file with the root it was collected under, so mirrored
// output paths keep the input's relative layout.
type sourceEntry struct {
	root m.Path
	path m.Path
}

// Run implements Workflow.
func (w *workflow) Run(ctx context.Context, args RunArgs) ([]m.FileReport, error) {
	entries, err := w.collect(args.Paths)
	if err != nil {
		return nil, err
	}

	if err := w.ui.Start(ctx, len(entries)); err != nil {
		return nil, fmt.Errorf("start ui: %w", err)
	}

	defer w.ui.Close(ctx)

	spill, err := pkg.NewFileSpill[m.FileReport]()
	if err != nil {
		return nil, fmt.Errorf("report spill: %w", err)
	}

	defer func() {
		if err := spill.Close(); err != nil {
			slog.Warn("failed to close report spill", "error", err)
		}
	}()

	threads := args.Threads
	if threads < 1 {
		threads = 1
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(threads)

	for _, entry := range entries {
		group.Go(func() error {
			w.ui.FileStarted(groupCtx, entry.path)

			report, err := w.processFile(groupCtx, entry, args)
			if err != nil {
				return fmt.Errorf("process %s: %w", entry.path, err)
			}

			if err := spill.Append(report); err != nil {
				return err
			}

			w.ui.FileFinished(groupCtx, report)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	var reports []m.FileReport

	err = spill.Range(func(_ uint64, report m.FileReport) error {
		reports = append(reports, report)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].Source < reports[j].Source })

	if args.Reports != "" {
		if err := w.reports.SaveReports(m.Path(args.Reports), reports); err != nil {
			return nil, err
		}
	}

	if err := w.ui.DisplaySummary(ctx, reports); err != nil {
		return nil, err
	}

	return reports, nil
}

// collect expands the input paths into individual files.
func (w *workflow) collect(paths []string) ([]sourceEntry, error) {
	var entries []sourceEntry

	seen := make(map[m.Path]struct{})

	for _, root := range paths {
		files, err := w.fs.Walk(m.Path(root))
		if err != nil {
			return nil, err
		}

		for _, f := range files {
			if _, dup := seen[f]; dup {
				continue
			}

			seen[f] = struct{}{}
			entries = append(entries, sourceEntry{root: m.Path(root), path: f})
		}
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no input files under %v", paths)
	}

	return entries, nil
}

func (w *workflow) processFile(ctx context.Context, entry sourceEntry, args RunArgs) (m.FileReport, error) {
	content, err := w.fs.ReadFile(entry.path)
	if err != nil {
		return m.FileReport{}, err
	}

	report := m.FileReport{
		Source:    entry.path,
		Hash:      w.fs.Hash(content),
		InputSize: len(content),
	}

	if lang := w.detector.Detect(entry.path, content); lang != m.LangPython {
		report.Skipped = true
		report.SkipReason = skipReason(lang)
		report.OutputSize = len(content)

		slog.Debug("skipping file", "path", entry.path, "language", string(lang))

		return report, nil
	}

	result, err := w.pipeline.Run(ctx, string(content))
	if err != nil {
		if ctx.Err() != nil {
			return m.FileReport{}, err
		}

		// Fatal per-file error: record it, write nothing, keep the run going
		// for the other files.
		report.Failed = true
		report.Error = err.Error()

		slog.Error("obfuscation failed", "path", entry.path, "error", err)

		return report, nil
	}

	target, err := targetPath(entry, args)
	if err != nil {
		return m.FileReport{}, err
	}

	if err := w.fs.WriteFileAtomic(target, []byte(result.Output)); err != nil {
		return m.FileReport{}, err
	}

	report.Target = target
	report.OutputSize = len(result.Output)

	result.Output = "" // do not drag file bodies through the report
	report.Result = result

	return report, nil
}

func skipReason(lang m.Language) string {
	if lang == m.LangUnknown {
		return "language not recognized"
	}

	return fmt.Sprintf("unsupported language %s", lang)
}

// targetPath resolves where a file's output goes: mirrored under OutDir, or
// a suffixed sibling.
func targetPath(entry sourceEntry, args RunArgs) (m.Path, error) {
	if args.OutDir != "" {
		rel, err := filepath.Rel(string(entry.root), string(entry.path))
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = filepath.Base(string(entry.path))
		}

		return m.Path(filepath.Join(args.OutDir, rel)), nil
	}

	suffix := args.Suffix
	if suffix == "" {
		suffix = "_obf"
	}

	dir := filepath.Dir(string(entry.path))
	base := filepath.Base(string(entry.path))
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	if stem+suffix+ext == base {
		return "", fmt.Errorf("output would overwrite input %s", entry.path)
	}

	return m.Path(filepath.Join(dir, stem+suffix+ext)), nil
}
