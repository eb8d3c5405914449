package domain

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/pelletier/go-toml/v2"
	"mrt.dev/pkg/mrt/internal/adapter"
	m "mrt.dev/pkg/mrt/internal/model"
)

const (
	// PoetryArchetypeID identifies Python packages managed by poetry.
	PoetryArchetypeID = "python/poetry"

	pyprojectFile = "pyproject.toml"
)

var poetryHeader = []byte("[tool.poetry]")

type pyproject struct {
	Tool struct {
		Poetry struct {
			Name    string         `toml:"name"`
			Version string         `toml:"version"`
			Scripts map[string]any `toml:"scripts"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func readPyproject(fs adapter.SourceFSAdapter, dir m.Path) (pyproject, m.Path, error) {
	path := fs.JoinPath(string(dir), pyprojectFile)

	data, err := fs.ReadFile(path)
	if err != nil {
		return pyproject{}, path, fmt.Errorf("open %s: %w", path, err)
	}

	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return pyproject{}, path, fmt.Errorf("parse %s: %w", path, err)
	}

	return doc, path, nil
}

// PoetryArchetype detects directories whose pyproject.toml has a
// [tool.poetry] table.
type PoetryArchetype struct {
	fs     adapter.SourceFSAdapter
	runner ScriptRunner
	logger *slog.Logger
}

// NewPoetryArchetype constructs the poetry archetype.
func NewPoetryArchetype(fs adapter.SourceFSAdapter, runner ScriptRunner, logger *slog.Logger) *PoetryArchetype {
	if logger == nil {
		logger = slog.Default()
	}

	return &PoetryArchetype{fs: fs, runner: runner, logger: logger}
}

// ID implements Archetype.
func (a *PoetryArchetype) ID() string { return PoetryArchetypeID }

// Matches looks for the [tool.poetry] header. A pyproject.toml that cannot
// be read is logged and does not match.
func (a *PoetryArchetype) Matches(dir m.Path) bool {
	path := a.fs.JoinPath(string(dir), pyprojectFile)
	if !a.fs.FileExists(path) {
		return false
	}

	data, err := a.fs.ReadFile(path)
	if err != nil {
		a.logger.Warn("Failed to read pyproject.toml", "path", path, "error", err)
		return false
	}

	return bytes.Contains(data, poetryHeader)
}

// ReadInfo reads tool.poetry.name and tool.poetry.version.
func (a *PoetryArchetype) ReadInfo(dir m.Path) (PackageInfo, error) {
	doc, path, err := readPyproject(a.fs, dir)
	if err != nil {
		return PackageInfo{}, err
	}

	if doc.Tool.Poetry.Name == "" {
		return PackageInfo{}, fmt.Errorf("%w: tool.poetry.name in %s", ErrManifestMissingField, path)
	}

	if doc.Tool.Poetry.Version == "" {
		return PackageInfo{}, fmt.Errorf("%w: tool.poetry.version in %s", ErrManifestMissingField, path)
	}

	return PackageInfo{Name: doc.Tool.Poetry.Name, Version: doc.Tool.Poetry.Version}, nil
}

// ScriptRunner implements Archetype.
func (a *PoetryArchetype) ScriptRunner() ScriptRunner { return a.runner }

// PoetryRunner runs entries of [tool.poetry.scripts] through `poetry run`.
type PoetryRunner struct {
	poetry *CommandRunner
	fs     adapter.SourceFSAdapter
}

// NewPoetryRunner constructs a PoetryRunner.
func NewPoetryRunner(proc adapter.ProcessAdapter, fs adapter.SourceFSAdapter) *PoetryRunner {
	return &PoetryRunner{poetry: NewCommandRunner("poetry", proc), fs: fs}
}

// Name implements ScriptRunner.
func (r *PoetryRunner) Name() string { return "poetry" }

// CanRun reports whether [tool.poetry.scripts] declares rc.Script.
func (r *PoetryRunner) CanRun(_ context.Context, rc RunContext) (bool, error) {
	doc, _, err := readPyproject(r.fs, rc.Package.AbsolutePath)
	if err != nil {
		return false, &ProbeError{Runner: r.Name(), Err: err}
	}

	_, ok := doc.Tool.Poetry.Scripts[rc.Script]

	return ok, nil
}

// Run executes `poetry run <script>`.
func (r *PoetryRunner) Run(ctx context.Context, rc RunContext) (m.ScriptRunResult, error) {
	result, err := r.poetry.RunScript(ctx, []string{"run", rc.Script}, rc)
	if err != nil {
		return result, &ExecError{Runner: r.Name(), Err: err}
	}

	return result, nil
}
