package adapter

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "mrt.dev/pkg/mrt/internal/model"
)

func requireShell(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}
}

func TestLocalProcessAdapter_StreamsStdoutLines(t *testing.T) {
	requireShell(t)

	var lines []string

	result, err := NewLocalProcessAdapter().Run(context.Background(), ProcessSpec{
		Name:         "sh",
		Args:         []string{"-c", "echo one; echo two >&2; printf 'three\\nfour'"},
		Dir:          m.Path(t.TempDir()),
		OnStdoutLine: func(line string) { lines = append(lines, line) },
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "three", "four"}, lines)
	assert.Equal(t, "one\nthree\nfour", result.Stdout)
	assert.Equal(t, "two\n", result.Stderr)
	assert.Equal(t, 0, result.ExitCode)
	assert.True(t, result.Exited)
}

func TestLocalProcessAdapter_WorkingDirectory(t *testing.T) {
	requireShell(t)

	dir := t.TempDir()

	result, err := NewLocalProcessAdapter().Run(context.Background(), ProcessSpec{
		Name: "sh",
		Args: []string{"-c", "pwd -P"},
		Dir:  m.Path(dir),
	})
	require.NoError(t, err)

	resolved, err := canonical(dir)
	require.NoError(t, err)
	assert.Equal(t, resolved, strings.TrimSpace(result.Stdout))
}

func TestLocalProcessAdapter_NonZeroExitIsNotAnError(t *testing.T) {
	requireShell(t)

	result, err := NewLocalProcessAdapter().Run(context.Background(), ProcessSpec{
		Name: "sh",
		Args: []string{"-c", "echo failing >&2; exit 2"},
		Dir:  m.Path(t.TempDir()),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.ExitCode)
	assert.True(t, result.Exited)
	assert.Equal(t, "failing\n", result.Stderr)
}

func TestLocalProcessAdapter_SignalHasNoExitCode(t *testing.T) {
	requireShell(t)

	result, err := NewLocalProcessAdapter().Run(context.Background(), ProcessSpec{
		Name: "sh",
		Args: []string{"-c", "kill -9 $$"},
		Dir:  m.Path(t.TempDir()),
	})
	require.NoError(t, err)

	assert.False(t, result.Exited)
	assert.Equal(t, -1, result.ExitCode)
}

func TestLocalProcessAdapter_MissingBinary(t *testing.T) {
	_, err := NewLocalProcessAdapter().Run(context.Background(), ProcessSpec{
		Name: "mrt-definitely-not-installed",
		Dir:  m.Path(t.TempDir()),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, exec.ErrNotFound)
}

func TestReadLines_LongLine(t *testing.T) {
	long := strings.Repeat("x", 200_000)

	var got []string

	out, err := readLines(strings.NewReader(long+"\nshort\n"), func(line string) { got = append(got, line) })
	require.NoError(t, err)

	assert.Equal(t, long+"\nshort\n", out)
	assert.Equal(t, []string{long, "short"}, got)
}
