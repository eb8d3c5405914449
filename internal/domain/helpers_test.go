package domain

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"mrt.dev/pkg/mrt/internal/adapter"
	"mrt.dev/pkg/mrt/internal/controller"
	m "mrt.dev/pkg/mrt/internal/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func npmPackage(t *testing.T, dir, name, version string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "package.json"), `{"name":"`+name+`","version":"`+version+`"}`)
}

func poetryPackage(t *testing.T, dir, name, version string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), "[tool.poetry]\nname = \""+name+"\"\nversion = \""+version+"\"\n\n[tool.poetry.scripts]\nserve = \"app:main\"\n")
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&syncWriter{w: &buf}, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

type syncWriter struct {
	mu sync.Mutex
	w  *bytes.Buffer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.w.Write(p)
}

func validPackage(dir m.Path, name string) m.Package {
	return m.NewValidPackage(m.Path(name), dir, NpmArchetypeID, name, "1.0.0")
}

// mockRunner is a ScriptRunner driven by testify expectations on the script name.
type mockRunner struct {
	mock.Mock
	name string
}

func newMockRunner(t *testing.T, name string) *mockRunner {
	r := &mockRunner{name: name}
	r.Test(t)
	t.Cleanup(func() { r.AssertExpectations(t) })

	return r
}

func (r *mockRunner) Name() string { return r.name }

func (r *mockRunner) CanRun(_ context.Context, rc RunContext) (bool, error) {
	args := r.Called(rc.Script)
	return args.Bool(0), args.Error(1)
}

func (r *mockRunner) Run(_ context.Context, rc RunContext) (m.ScriptRunResult, error) {
	args := r.Called(rc.Script)
	return args.Get(0).(m.ScriptRunResult), args.Error(1)
}

// funcRunner runs a plain function, for tests that call it concurrently.
type funcRunner struct {
	run func(rc RunContext) (m.ScriptRunResult, error)
}

func (funcRunner) Name() string { return "func" }

func (funcRunner) CanRun(context.Context, RunContext) (bool, error) { return true, nil }

func (f funcRunner) Run(_ context.Context, rc RunContext) (m.ScriptRunResult, error) {
	return f.run(rc)
}

// stubArchetype registers a runner under an id without touching the disk.
type stubArchetype struct {
	id     string
	runner ScriptRunner
}

func (s stubArchetype) ID() string { return s.id }
func (s stubArchetype) Matches(m.Path) bool { return false }
func (s stubArchetype) ReadInfo(m.Path) (PackageInfo, error) { return PackageInfo{}, nil }
func (s stubArchetype) ScriptRunner() ScriptRunner { return s.runner }

// recordingReporter collects streamed lines.
type recordingReporter struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingReporter) ReportOutput(command, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = append(r.lines, command+": "+line)
}

func (r *recordingReporter) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.lines...)
}

// recordingProgress records the finished result of every unit by package name.
type recordingProgress struct {
	mu       sync.Mutex
	finished map[string]m.ScriptRunResult
	output   map[string][]string
}

func newRecordingProgress() *recordingProgress {
	return &recordingProgress{
		finished: map[string]m.ScriptRunResult{},
		output:   map[string][]string{},
	}
}

func (p *recordingProgress) Unit(pkg m.Package) controller.UnitReporter {
	return &recordingUnit{progress: p, name: pkg.Name}
}

type recordingUnit struct {
	progress *recordingProgress
	name     string
}

func (u *recordingUnit) ReportOutput(_ string, line string) {
	u.progress.mu.Lock()
	defer u.progress.mu.Unlock()

	u.progress.output[u.name] = append(u.progress.output[u.name], line)
}

func (u *recordingUnit) Finish(result m.ScriptRunResult) {
	u.progress.mu.Lock()
	defer u.progress.mu.Unlock()

	u.progress.finished[u.name] = result
}

func newLocalFS() adapter.SourceFSAdapter {
	return adapter.NewLocalSourceFSAdapter()
}
