package domain

import (
	"context"
	"fmt"
	"log/slog"

	"mrt.dev/pkg/mrt/internal/controller"
	m "mrt.dev/pkg/mrt/internal/model"
)

// RunContext carries what a runner needs to probe or run a script.
type RunContext struct {
	Script   string
	Package  m.Package
	Reporter controller.ProgressReporter
}

func (rc RunContext) reporter() controller.ProgressReporter {
	if rc.Reporter == nil {
		return controller.NoopProgress{}.Unit(rc.Package)
	}

	return rc.Reporter
}

// ScriptRunner probes for and executes a named script against a package.
type ScriptRunner interface {
	// Name identifies the runner in logs and errors.
	Name() string
	// CanRun reports whether the runner can run rc.Script. A returned error
	// means the probe itself could not be carried out.
	CanRun(ctx context.Context, rc RunContext) (bool, error)
	// Run executes rc.Script.
	Run(ctx context.Context, rc RunContext) (m.ScriptRunResult, error)
}

// ProbeError is returned when a runner's capability probe could not execute.
type ProbeError struct {
	Runner string
	Err    error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s runner: %v", e.Runner, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// ExecError is returned when the chosen runner could not spawn or complete
// its process.
type ExecError struct {
	Runner string
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("run %s runner: %v", e.Runner, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// WrapperOption configures a WrapperRunner.
type WrapperOption func(*WrapperRunner)

// SwallowProbeErrors makes a failing probe count as "cannot run" so the next
// runner in the chain is tried. Without it probe errors propagate.
func SwallowProbeErrors() WrapperOption {
	return func(w *WrapperRunner) {
		w.swallowProbeErrors = true
	}
}

// WithWrapperLogger sets the logger used for swallowed probe errors.
func WithWrapperLogger(logger *slog.Logger) WrapperOption {
	return func(w *WrapperRunner) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WrapperRunner composes runners ordered from most generic to most specific.
// The first runner whose probe succeeds wins.
type WrapperRunner struct {
	runners            []ScriptRunner
	swallowProbeErrors bool
	logger             *slog.Logger
}

// NewWrapperRunner builds a chain over runners, tried in the given order.
func NewWrapperRunner(runners []ScriptRunner, opts ...WrapperOption) *WrapperRunner {
	w := &WrapperRunner{
		runners: runners,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Name implements ScriptRunner.
func (w *WrapperRunner) Name() string {
	return "wrapper"
}

// Runners returns the chain in probe order.
func (w *WrapperRunner) Runners() []ScriptRunner {
	return w.runners
}

// CanRun reports whether any runner in the chain can run the script.
func (w *WrapperRunner) CanRun(ctx context.Context, rc RunContext) (bool, error) {
	_, ok, err := w.resolve(ctx, rc)
	return ok, err
}

// Run executes the first runner that can run the script. When none can, the
// result is Noop and no error is returned.
func (w *WrapperRunner) Run(ctx context.Context, rc RunContext) (m.ScriptRunResult, error) {
	runner, ok, err := w.resolve(ctx, rc)
	if err != nil {
		return m.ScriptRunResult{}, err
	}

	if !ok {
		w.logger.Debug("No runner can run script", "script", rc.Script, "package", rc.Package.Name)
		return m.NoopResult(), nil
	}

	w.logger.Debug("Resolved runner", "runner", runner.Name(), "script", rc.Script, "package", rc.Package.Name)

	return runner.Run(ctx, rc)
}

func (w *WrapperRunner) resolve(ctx context.Context, rc RunContext) (ScriptRunner, bool, error) {
	for _, runner := range w.runners {
		ok, err := runner.CanRun(ctx, rc)
		if err != nil {
			if w.swallowProbeErrors {
				w.logger.Warn("Runner probe failed, trying next runner",
					"runner", runner.Name(), "script", rc.Script, "package", rc.Package.Name, "error", err)

				continue
			}

			return nil, false, err
		}

		if ok {
			return runner, true, nil
		}
	}

	return nil, false, nil
}
