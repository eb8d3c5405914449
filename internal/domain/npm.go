package domain

import (
	"context"
	"encoding/json"
	"fmt"

	"mrt.dev/pkg/mrt/internal/adapter"
	m "mrt.dev/pkg/mrt/internal/model"
)

const (
	// NpmArchetypeID identifies Node.js packages managed by npm.
	NpmArchetypeID = "nodejs/npm"

	packageJSONFile = "package.json"
)

// NpmArchetype detects directories holding a package.json.
type NpmArchetype struct {
	fs     adapter.SourceFSAdapter
	runner ScriptRunner
}

// NewNpmArchetype constructs the npm archetype with runner as its chain.
func NewNpmArchetype(fs adapter.SourceFSAdapter, runner ScriptRunner) *NpmArchetype {
	return &NpmArchetype{fs: fs, runner: runner}
}

// ID implements Archetype.
func (a *NpmArchetype) ID() string { return NpmArchetypeID }

// Matches implements Archetype.
func (a *NpmArchetype) Matches(dir m.Path) bool {
	return a.fs.FileExists(a.fs.JoinPath(string(dir), packageJSONFile))
}

// ReadInfo reads name and version from package.json.
func (a *NpmArchetype) ReadInfo(dir m.Path) (PackageInfo, error) {
	path := a.fs.JoinPath(string(dir), packageJSONFile)

	data, err := a.fs.ReadFile(path)
	if err != nil {
		return PackageInfo{}, fmt.Errorf("open %s: %w", path, err)
	}

	var manifest struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}

	if err := json.Unmarshal(data, &manifest); err != nil {
		return PackageInfo{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if manifest.Name == "" {
		return PackageInfo{}, fmt.Errorf("%w: name in %s", ErrManifestMissingField, path)
	}

	if manifest.Version == "" {
		return PackageInfo{}, fmt.Errorf("%w: version in %s", ErrManifestMissingField, path)
	}

	return PackageInfo{Name: manifest.Name, Version: manifest.Version}, nil
}

// ScriptRunner implements Archetype.
func (a *NpmArchetype) ScriptRunner() ScriptRunner { return a.runner }

// NpmRunner runs scripts declared in package.json through npm.
type NpmRunner struct {
	npm *CommandRunner
}

// NewNpmRunner constructs an NpmRunner.
func NewNpmRunner(proc adapter.ProcessAdapter) *NpmRunner {
	return &NpmRunner{npm: NewCommandRunner("npm", proc)}
}

// Name implements ScriptRunner.
func (r *NpmRunner) Name() string { return "npm" }

// Scripts lists the package's scripts with `npm run --json`.
func (r *NpmRunner) Scripts(ctx context.Context, rc RunContext) (map[string]string, error) {
	var raw any
	if err := r.npm.DecodeJSON(ctx, []string{"run", "--json"}, rc, &raw); err != nil {
		return nil, err
	}

	if raw == nil {
		return map[string]string{}, nil
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("`%s` did not return an object", r.npm.Describe([]string{"run", "--json"}))
	}

	scripts := make(map[string]string, len(obj))
	for name, def := range obj {
		if s, ok := def.(string); ok {
			scripts[name] = s
		} else {
			scripts[name] = fmt.Sprint(def)
		}
	}

	return scripts, nil
}

// CanRun reports whether package.json declares rc.Script.
func (r *NpmRunner) CanRun(ctx context.Context, rc RunContext) (bool, error) {
	scripts, err := r.Scripts(ctx, rc)
	if err != nil {
		return false, &ProbeError{Runner: r.Name(), Err: err}
	}

	_, ok := scripts[rc.Script]

	return ok, nil
}

// Run executes `npm run <script>`.
func (r *NpmRunner) Run(ctx context.Context, rc RunContext) (m.ScriptRunResult, error) {
	result, err := r.npm.RunScript(ctx, []string{"run", rc.Script}, rc)
	if err != nil {
		return result, &ExecError{Runner: r.Name(), Err: err}
	}

	return result, nil
}
