// Package controller provides the output adapters used to display packages,
// script results and fingerprints.
package controller

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	m "mrt.dev/pkg/mrt/internal/model"
)

// OutputFormat selects how command results are rendered.
type OutputFormat string

// Supported output formats.
const (
	FormatTable OutputFormat = ""
	FormatJSON  OutputFormat = "json"
)

// ParseOutputFormat validates the value of the --output flag.
func ParseOutputFormat(value string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	}

	return FormatTable, fmt.Errorf("unsupported output format %q (supported: json)", value)
}

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeList StartMode = iota
	ModeRun
	ModeHash
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode     StartMode
	script   string
	packages []m.Package
}

// Mode returns the configured start mode.
func (c StartConfig) Mode() StartMode { return c.mode }

// Script returns the script name of a run.
func (c StartConfig) Script() string { return c.script }

// Packages returns the packages of a run in display order.
func (c StartConfig) Packages() []m.Package { return c.packages }

// WithListMode sets the UI to package listing mode.
func WithListMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeList
	}
}

// WithRunMode sets the UI to script execution mode over packages.
func WithRunMode(script string, packages []m.Package) StartOption {
	return func(c *StartConfig) {
		c.mode = ModeRun
		c.script = script
		c.packages = packages
	}
}

// WithHashMode sets the UI to fingerprint mode.
func WithHashMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeHash
	}
}

func newStartConfig(options []StartOption) StartConfig {
	var cfg StartConfig
	for _, opt := range options {
		opt(&cfg)
	}

	return cfg
}

// UI defines how command results reach the user.
// Implementations can use different output methods (table, TUI, JSON).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for the UI to flush its final frame
	// Interactive reports whether per-package progress is displayed live.
	Interactive() bool
	Progress() Progress
	DisplayPackages(ctx context.Context, packages []m.Package) error
	DisplayRunResults(ctx context.Context, results []m.PackageRunResult) error
	DisplayFingerprints(ctx context.Context, fingerprints []m.PackageFingerprint, showFiles bool) error
}

// NewUI picks the UI for the output format and terminal: JSON when
// requested, the live TUI on a terminal, plain tables otherwise.
func NewUI(cmd *cobra.Command, isTTY bool, format OutputFormat) UI {
	if format == FormatJSON {
		return NewJSONUI(cmd)
	}

	if isTTY {
		return NewTUI(cmd)
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether the file is a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
