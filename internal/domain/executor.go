package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"mrt.dev/pkg/mrt/internal/controller"
	m "mrt.dev/pkg/mrt/internal/model"
)

// RunArgs describes one script run across packages.
type RunArgs struct {
	Packages []m.Package
	Script   string
	// Interactive enables per-package status lines through Progress.
	Interactive bool
	Progress    controller.Progress
	// Parallel bounds concurrent units. Zero or less runs every package at once.
	Parallel int
}

// Executor runs a script against many packages concurrently.
type Executor struct {
	registry *Registry
	logger   *slog.Logger
}

// NewExecutor constructs an Executor resolving runners through registry.
func NewExecutor(registry *Registry, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{registry: registry, logger: logger}
}

// RunScriptAcross runs args.Script in every package and returns one result
// per package in input order. A failing, panicking or non-zero unit only
// affects its own entry. There is no timeout: a hung child blocks the call.
func (e *Executor) RunScriptAcross(ctx context.Context, args RunArgs) []m.PackageRunResult {
	results := make([]m.PackageRunResult, len(args.Packages))

	progress := args.Progress
	if !args.Interactive || progress == nil {
		progress = controller.NoopProgress{}
	}

	var g errgroup.Group
	if args.Parallel > 0 {
		g.SetLimit(args.Parallel)
	}

	for i, pkg := range args.Packages {
		i, pkg := i, pkg
		g.Go(func() error {
			results[i] = m.PackageRunResult{Package: pkg, Result: e.runUnit(ctx, pkg, args.Script, progress)}

			return nil
		})
	}

	_ = g.Wait()

	return results
}

// runUnit owns one package's reporter and run. A panic in the runner or in
// the reporter only affects this package.
func (e *Executor) runUnit(ctx context.Context, pkg m.Package, script string, progress controller.Progress) (result m.ScriptRunResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Progress reporter panicked", "package", pkg.Name, "panic", r)
			result = errorResult("", fmt.Errorf("panic: %v", r))
		}
	}()

	unit := progress.Unit(pkg)
	result = e.execute(ctx, pkg, script, unit)
	e.finish(pkg, unit, result)

	return result
}

// finish finalizes the status line. A reporter failing here does not change
// the outcome of a script that already ran.
func (e *Executor) finish(pkg m.Package, unit controller.UnitReporter, result m.ScriptRunResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Progress reporter panicked", "package", pkg.Name, "panic", r)
		}
	}()

	unit.Finish(result)
}

func (e *Executor) execute(ctx context.Context, pkg m.Package, script string, unit controller.UnitReporter) (result m.ScriptRunResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Script unit panicked", "package", pkg.Name, "script", script, "panic", r)
			result = errorResult("", fmt.Errorf("panic: %v", r))
		}
	}()

	if !pkg.Status.Valid() {
		return m.NoopResult()
	}

	runner, err := e.registry.RunnerFor(pkg)
	if err != nil {
		e.logger.Error("Cannot resolve runner", "package", pkg.Name, "error", err)
		return errorResult("", err)
	}

	rc := RunContext{Script: script, Package: pkg, Reporter: unit}

	res, err := runner.Run(ctx, rc)
	if err != nil {
		e.logger.Error("Script run failed", "package", pkg.Name, "script", script, "error", err)
		return errorResult(res.Command, err)
	}

	e.logger.Info("Script finished", "package", pkg.Name, "script", script,
		"command", res.Command, "result", res.ResultType.String(), "exit_code", res.ExitCode)

	return res
}

func errorResult(command string, err error) m.ScriptRunResult {
	return m.ScriptRunResult{
		Command:    command,
		ResultType: m.Error(err.Error()),
		ExitCode:   -1,
	}
}

// AnyFailed reports whether any result is an error.
func AnyFailed(results []m.PackageRunResult) bool {
	for _, r := range results {
		if r.Result.Failed() {
			return true
		}
	}

	return false
}

// FailureError returns ErrScriptFailed naming the failed packages, or nil.
func FailureError(results []m.PackageRunResult) error {
	var errs []error

	for _, r := range results {
		if r.Result.Failed() {
			errs = append(errs, fmt.Errorf("%s: %s", r.Package.Name, r.Result.ResultType.Message))
		}
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrScriptFailed, errors.Join(errs...))
}
