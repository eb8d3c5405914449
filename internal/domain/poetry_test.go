package domain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"mrt.dev/pkg/mrt/internal/adapter"
	adaptermocks "mrt.dev/pkg/mrt/internal/adapter/mocks"
	m "mrt.dev/pkg/mrt/internal/model"
)

func TestPoetryArchetype_Matches(t *testing.T) {
	archetype := NewPoetryArchetype(newLocalFS(), nil, nil)

	t.Run("poetry project", func(t *testing.T) {
		dir := t.TempDir()
		poetryPackage(t, dir, "bar", "2.0.0")
		assert.True(t, archetype.Matches(m.Path(dir)))
	})

	t.Run("pyproject without poetry", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "pyproject.toml"), "[project]\nname = \"bar\"\n")
		assert.False(t, archetype.Matches(m.Path(dir)))
	})

	t.Run("no pyproject", func(t *testing.T) {
		assert.False(t, archetype.Matches(m.Path(t.TempDir())))
	})
}

func TestPoetryArchetype_UnreadablePyprojectWarns(t *testing.T) {
	logger, logs := bufferLogger()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "pyproject.toml"), 0o755))

	archetype := NewPoetryArchetype(newLocalFS(), nil, logger)

	assert.False(t, archetype.Matches(m.Path(dir)))
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "pyproject.toml")
}

func TestPoetryArchetype_ReadInfo(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected PackageInfo
		errMsg   string
	}{
		{
			name:     "valid",
			content:  "[tool.poetry]\nname = \"bar\"\nversion = \"2.0.0\"\n",
			expected: PackageInfo{Name: "bar", Version: "2.0.0"},
		},
		{name: "missing version", content: "[tool.poetry]\nname = \"bar\"\n", errMsg: "tool.poetry.version"},
		{name: "missing name", content: "[tool.poetry]\nversion = \"2.0.0\"\n", errMsg: "tool.poetry.name"},
		{name: "mistyped version", content: "[tool.poetry]\nname = \"bar\"\nversion = 2\n", errMsg: "parse"},
		{name: "malformed", content: "[tool.poetry\n", errMsg: "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "pyproject.toml"), tt.content)

			info, err := NewPoetryArchetype(newLocalFS(), nil, nil).ReadInfo(m.Path(dir))
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, info)
		})
	}
}

func TestPoetryRunner_CanRun(t *testing.T) {
	dir := t.TempDir()
	poetryPackage(t, dir, "bar", "2.0.0")

	proc := adaptermocks.NewMockProcessAdapter(t)
	runner := NewPoetryRunner(proc, newLocalFS())

	rc := RunContext{Package: m.NewValidPackage("bar", m.Path(dir), PoetryArchetypeID, "bar", "2.0.0")}

	rc.Script = "serve"
	ok, err := runner.CanRun(context.Background(), rc)
	require.NoError(t, err)
	assert.True(t, ok)

	rc.Script = "build"
	ok, err = runner.CanRun(context.Background(), rc)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPoetryRunner_BrokenPyprojectIsProbeError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), "[tool.poetry\n")

	rc := RunContext{Script: "serve", Package: m.NewValidPackage("bar", m.Path(dir), PoetryArchetypeID, "bar", "2.0.0")}

	_, err := NewPoetryRunner(adaptermocks.NewMockProcessAdapter(t), newLocalFS()).CanRun(context.Background(), rc)

	var probeErr *ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.Equal(t, "poetry", probeErr.Runner)
}

func TestPoetryRunner_Run(t *testing.T) {
	proc := adaptermocks.NewMockProcessAdapter(t)
	proc.On("Run", mock.Anything, mock.MatchedBy(func(spec adapter.ProcessSpec) bool {
		return spec.Name == "poetry" && assert.ObjectsAreEqual([]string{"run", "serve"}, spec.Args)
	})).Return(adapter.ProcessResult{Exited: true}, nil)

	result, err := NewPoetryRunner(proc, newLocalFS()).Run(context.Background(), runContext("serve"))
	require.NoError(t, err)
	assert.Equal(t, "poetry run serve", result.Command)
	assert.Equal(t, m.Success(), result.ResultType)
}
