package controller

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		value string
		want  OutputFormat
	}{
		{"", FormatTable},
		{"table", FormatTable},
		{"json", FormatJSON},
		{" JSON ", FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseOutputFormat("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestNewUI(t *testing.T) {
	cmd, _ := newTestCmd(t)

	assert.IsType(t, &JSONUI{}, NewUI(cmd, true, FormatJSON))
	assert.IsType(t, &JSONUI{}, NewUI(cmd, false, FormatJSON))
	assert.IsType(t, &TUI{}, NewUI(cmd, true, FormatTable))
	assert.IsType(t, &SimpleUI{}, NewUI(cmd, false, FormatTable))
}

func TestStartConfig(t *testing.T) {
	pkgs := samplePackages()

	cfg := newStartConfig([]StartOption{WithRunMode("build", pkgs)})
	assert.Equal(t, ModeRun, cfg.Mode())
	assert.Equal(t, "build", cfg.Script())
	assert.Equal(t, pkgs, cfg.Packages())

	cfg = newStartConfig([]StartOption{WithRunMode("build", pkgs), WithHashMode()})
	assert.Equal(t, ModeHash, cfg.Mode())

	assert.Equal(t, ModeList, newStartConfig(nil).Mode())
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(nil))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	assert.False(t, IsTTY(f))
}

func TestNoopProgress(t *testing.T) {
	unit := NoopProgress{}.Unit(samplePackages()[0])
	require.NotNil(t, unit)

	assert.NotPanics(t, func() {
		unit.ReportOutput("npm run build", "line")
		unit.Finish(sampleResults()[0].Result)
	})
}
