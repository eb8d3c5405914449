package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"mrt.dev/pkg/mrt/internal/adapter"
	"mrt.dev/pkg/mrt/internal/controller"
	m "mrt.dev/pkg/mrt/internal/model"
	"mrt.dev/pkg/mrt/pkg/fingerprint"
)

// ProjectArgs locates the project and its package globs.
type ProjectArgs struct {
	Root     m.Path
	Patterns []string
}

// ListArgs contains the arguments for listing packages.
type ListArgs struct {
	ProjectArgs
	All bool
}

// RunScriptArgs contains the arguments for running a script across packages.
type RunScriptArgs struct {
	ProjectArgs
	Script   string
	Parallel int
}

// HashArgs contains the arguments for fingerprinting packages.
type HashArgs struct {
	ProjectArgs
	// Packages selects packages by name or relative path. Empty means all.
	Packages []string
	Files    bool
	// Compare is a previous `mrt hash --output json` document to diff against.
	Compare m.Path
}

// Workflow defines the commands of the tool.
type Workflow interface {
	List(ctx context.Context, args ListArgs) error
	Run(ctx context.Context, args RunScriptArgs) error
	Hash(ctx context.Context, args HashArgs) error
}

type workflow struct {
	fs       adapter.SourceFSAdapter
	ui       controller.UI
	registry *Registry
	executor *Executor
	engine   *fingerprint.Engine
	logger   *slog.Logger
}

// NewWorkflow creates a Workflow with the provided dependencies.
func NewWorkflow(
	fs adapter.SourceFSAdapter,
	ui controller.UI,
	registry *Registry,
	engine *fingerprint.Engine,
	logger *slog.Logger,
) Workflow {
	if logger == nil {
		logger = slog.Default()
	}

	return &workflow{
		fs:       fs,
		ui:       ui,
		registry: registry,
		executor: NewExecutor(registry, logger),
		engine:   engine,
		logger:   logger,
	}
}

func (w *workflow) project(args ProjectArgs) *Project {
	return NewProject(args.Root, args.Patterns, w.fs, w.registry, w.logger)
}

func (w *workflow) List(ctx context.Context, args ListArgs) error {
	if err := w.ui.Start(ctx, controller.WithListMode()); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}
	defer w.ui.Close(ctx)

	packages := w.project(args.ProjectArgs).Packages(args.All)
	w.logger.Info("Listed packages", "count", len(packages), "all", args.All)

	return w.ui.DisplayPackages(ctx, packages)
}

func (w *workflow) Run(ctx context.Context, args RunScriptArgs) error {
	if err := ValidateScriptName(args.Script); err != nil {
		return err
	}

	packages := w.project(args.ProjectArgs).Packages(false)

	if err := w.ui.Start(ctx, controller.WithRunMode(args.Script, packages)); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}

	w.logger.Info("Running script", "script", args.Script, "packages", len(packages), "parallel", args.Parallel)

	results := w.executor.RunScriptAcross(ctx, RunArgs{
		Packages:    packages,
		Script:      args.Script,
		Interactive: w.ui.Interactive(),
		Progress:    w.ui.Progress(),
		Parallel:    args.Parallel,
	})

	w.ui.Close(ctx)
	w.ui.Wait(ctx)

	if err := w.ui.DisplayRunResults(ctx, results); err != nil {
		return fmt.Errorf("display results: %w", err)
	}

	return FailureError(results)
}

func (w *workflow) Hash(ctx context.Context, args HashArgs) error {
	packages, err := w.project(args.ProjectArgs).Select(args.Packages)
	if err != nil {
		return err
	}

	var previous map[string]m.PackageFingerprint
	if args.Compare != "" {
		previous, err = w.loadPrevious(args.Compare)
		if err != nil {
			return err
		}
	}

	if err := w.ui.Start(ctx, controller.WithHashMode()); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}
	defer w.ui.Close(ctx)

	fingerprints := make([]m.PackageFingerprint, 0, len(packages))

	for _, pkg := range packages {
		if err := ctx.Err(); err != nil {
			return err
		}

		tree, err := w.engine.Tree(string(pkg.AbsolutePath))
		if err != nil {
			return fmt.Errorf("fingerprint %s: %w", pkg.Name, err)
		}

		fp := m.PackageFingerprint{Package: pkg, Digest: tree.Digest(), Tree: tree}

		if previous != nil {
			if err := compareWith(&fp, previous); err != nil {
				return err
			}
		}

		fingerprints = append(fingerprints, fp)
	}

	return w.ui.DisplayFingerprints(ctx, fingerprints, args.Files)
}

func (w *workflow) loadPrevious(path m.Path) (map[string]m.PackageFingerprint, error) {
	data, err := w.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read previous fingerprints: %w", err)
	}

	var doc controller.HashResult
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse previous fingerprints %s: %w", path, err)
	}

	previous := make(map[string]m.PackageFingerprint, len(doc.Fingerprints))
	for _, fp := range doc.Fingerprints {
		previous[string(fp.Package.RelativePath)] = fp
	}

	return previous, nil
}

// compareWith records what changed since the previous fingerprint of the
// same package. A package absent from the previous listing counts as all
// files added.
func compareWith(fp *m.PackageFingerprint, previous map[string]m.PackageFingerprint) error {
	prev := previous[string(fp.Package.RelativePath)]

	changes := fingerprint.Compare(prev.Tree, fp.Tree)
	fp.Changes = &changes

	if changes.Empty() {
		return nil
	}

	diff, err := fingerprint.UnifiedDiff(prev.Tree, fp.Tree, "previous/"+string(fp.Package.RelativePath), "current/"+string(fp.Package.RelativePath))
	if err != nil {
		return fmt.Errorf("diff %s: %w", fp.Package.Name, err)
	}

	fp.Diff = diff

	return nil
}

// ValidateScriptName rejects names the underlying tools would misread.
func ValidateScriptName(script string) error {
	if strings.TrimSpace(script) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidScriptName)
	}

	if strings.HasPrefix(script, "-") {
		return fmt.Errorf("%w: %q starts with '-'", ErrInvalidScriptName, script)
	}

	return nil
}
