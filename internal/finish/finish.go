// Package finish implements the finishing pass that patches an assembled
// app bundle's resource directory so the packaged application runs
// standalone.
//
// The default sequence is:
//
//  1. StepEntryScript: copy bin/<entry> to bin/<entry>.py
//  2. StepQtConf: write bin/qt.conf and libexec/qt.conf
//  3. StepKernelJSON: point the python3 kernel.json at the bundled python
//
// StepCleanup and StepPrune are destructive and only run when enabled;
// they always run last.
package finish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/tmc/appfinish"
	"github.com/tmc/appfinish/internal/kernelspec"
	"github.com/tmc/appfinish/internal/qtconf"
	"github.com/tmc/appfinish/internal/system"
)

// Step names, as used in results and logs.
const (
	StepEntryScript = "entry-script"
	StepQtConf      = "qtconf"
	StepKernelJSON  = "kernel-json"
	StepCleanup     = "cleanup"
	StepPrune       = "prune"
)

// DefaultCleanupDirs are removed by the cleanup step when it is enabled
// without an explicit list.
var DefaultCleanupDirs = []string{"translations"}

// Pass is a configured finishing pass over one resource directory.
type Pass struct {
	settings    *appfinish.Settings
	resourceDir string
	logger      *slog.Logger

	cleanup     bool
	cleanupDirs []string
	prune       bool
	interpreter string
}

// Option configures a Pass.
type Option func(*Pass)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pass) { p.logger = logger }
}

// WithCleanup enables the cleanup step. Without dirs, DefaultCleanupDirs
// are removed. Dirs are relative to the resource directory.
func WithCleanup(dirs ...string) Option {
	return func(p *Pass) {
		p.cleanup = true
		if len(dirs) > 0 {
			p.cleanupDirs = append([]string(nil), dirs...)
		}
	}
}

// WithPruneExcluded enables removal of paths matching the settings'
// exclusion list.
func WithPruneExcluded() Option {
	return func(p *Pass) { p.prune = true }
}

// WithInterpreter overrides the kernel.json launcher.
func WithInterpreter(name string) Option {
	return func(p *Pass) { p.interpreter = name }
}

// New creates a pass for the given settings. An empty resourceDir falls
// back to settings.ResourceDir.
func New(settings *appfinish.Settings, resourceDir string, opts ...Option) (*Pass, error) {
	if settings == nil {
		return nil, errors.New("finish: settings are required")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if resourceDir == "" {
		resourceDir = settings.ResourceDir
	}
	if resourceDir == "" {
		return nil, errors.New("finish: resource directory is required")
	}
	if !system.DirExists(resourceDir) {
		return nil, fmt.Errorf("finish: resource directory %s does not exist", resourceDir)
	}

	p := &Pass{
		settings:    settings,
		resourceDir: resourceDir,
		logger:      slog.Default(),
		cleanupDirs: DefaultCleanupDirs,
		interpreter: kernelspec.Interpreter,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("resource_dir", resourceDir)
	return p, nil
}

// ResourceDir returns the directory the pass works on.
func (p *Pass) ResourceDir() string {
	return p.resourceDir
}

type step struct {
	name string
	run  func() StepResult
}

// Steps returns the names of the steps Run will execute, in order.
func (p *Pass) Steps() []string {
	var names []string
	for _, s := range p.steps() {
		names = append(names, s.name)
	}
	return names
}

func (p *Pass) steps() []step {
	steps := []step{
		{StepEntryScript, p.DuplicateEntryScript},
		{StepQtConf, p.WriteQtConf},
		{StepKernelJSON, p.PatchKernelSpec},
	}
	if p.prune {
		steps = append(steps, step{StepPrune, p.PruneExcluded})
	}
	if p.cleanup {
		steps = append(steps, step{StepCleanup, p.Cleanup})
	}
	return steps
}

// Run executes the steps in order. Each step runs exactly once.
// Recovered failures are logged and the pass continues; the first failed
// step stops the pass and is returned as an *appfinish.Error.
// Cancelling ctx stops the pass between steps.
func (p *Pass) Run(ctx context.Context) (Report, error) {
	var report Report
	for _, s := range p.steps() {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("finish: %w", err)
		}

		res := s.run()
		report.Results = append(report.Results, res)
		p.logResult(res)

		if res.Status == StatusFailed {
			return report, p.stepError(res)
		}
	}
	p.logger.Info("finishing pass complete", "summary", report.String())
	return report, nil
}

func (p *Pass) logResult(res StepResult) {
	attrs := []any{"step", res.Step, "status", res.Status.String()}
	if len(res.Paths) > 0 {
		attrs = append(attrs, "paths", res.Paths)
	}
	switch res.Status {
	case StatusOK:
		p.logger.Info("step done", attrs...)
	case StatusSkipped:
		p.logger.Debug("step skipped", append(attrs, "reason", res.Reason)...)
	case StatusRecovered:
		p.logger.Warn("step failed, continuing", append(attrs, "reason", res.Reason, "error", res.Err)...)
	case StatusFailed:
		p.logger.Error("step failed", append(attrs, "error", res.Err)...)
	}
}

func (p *Pass) stepError(res StepResult) error {
	e := &appfinish.Error{Op: res.Step, Err: res.Err}
	var pathErr *fs.PathError
	if errors.As(res.Err, &pathErr) {
		e.Path = pathErr.Path
	}
	switch res.Step {
	case StepQtConf:
		e.Help = "check that the bundle's Resources directory is writable"
	case StepKernelJSON:
		e.Help = "the runtime environment ships a broken kernel.json; reinstall ipykernel in the environment"
	}
	return e
}

// DuplicateEntryScript copies bin/<entry> to bin/<entry>.py. A missing or
// unreadable entry script is logged and tolerated.
func (p *Pass) DuplicateEntryScript() StepResult {
	bin := filepath.Join(p.resourceDir, "bin")
	src := filepath.Join(bin, p.settings.EntryScript)
	dst := src + ".py"

	if err := system.CopyFile(src, dst); err != nil {
		reason := fmt.Sprintf("could not copy %s to %s", p.settings.EntryScript, filepath.Base(dst))
		return recovered(StepEntryScript, reason, err)
	}
	return ok(StepEntryScript, dst)
}

// WriteQtConf writes the qt.conf files, replacing any existing content.
func (p *Pass) WriteQtConf() StepResult {
	written, err := qtconf.WriteAll(p.resourceDir)
	if err != nil {
		return failed(StepQtConf, err)
	}
	return ok(StepQtConf, written...)
}

// PatchKernelSpec points the python3 kernel.json at the bundled interpreter.
// A missing descriptor is not an error; a malformed one is.
func (p *Pass) PatchKernelSpec() StepResult {
	path := kernelspec.Path(p.resourceDir)
	patched, err := kernelspec.Patch(path, p.interpreter)
	if err != nil {
		return failed(StepKernelJSON, err)
	}
	if !patched {
		return skipped(StepKernelJSON, "no kernel.json")
	}
	p.logger.Debug("fixed kernel.json", "argv0", p.interpreter)
	return ok(StepKernelJSON, path)
}
