package controller

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"
	m "mrt.dev/pkg/mrt/internal/model"
)

// JSONUI writes command results as indented JSON documents.
type JSONUI struct {
	cmd *cobra.Command
}

// NewJSONUI creates a new JSONUI.
func NewJSONUI(cmd *cobra.Command) *JSONUI {
	return &JSONUI{cmd: cmd}
}

// Start implements UI.
func (j *JSONUI) Start(ctx context.Context, _ ...StartOption) error {
	return ctx.Err()
}

// Close implements UI.
func (j *JSONUI) Close(context.Context) {}

// Wait implements UI.
func (j *JSONUI) Wait(context.Context) {}

// Interactive implements UI.
func (j *JSONUI) Interactive() bool { return false }

// Progress implements UI.
func (j *JSONUI) Progress() Progress { return NoopProgress{} }

// ListResult is the JSON document of `mrt list`.
type ListResult struct {
	Packages []m.Package `json:"packages"`
}

// RunResult is the JSON document of `mrt run`.
type RunResult struct {
	Results []m.PackageRunResult `json:"results"`
}

// HashResult is the JSON document of `mrt hash`. It is also the format
// `mrt hash --compare` reads back.
type HashResult struct {
	Fingerprints []m.PackageFingerprint `json:"fingerprints"`
}

// DisplayPackages implements UI.
func (j *JSONUI) DisplayPackages(ctx context.Context, packages []m.Package) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if packages == nil {
		packages = []m.Package{}
	}

	return j.write(ListResult{Packages: packages})
}

// DisplayRunResults implements UI.
func (j *JSONUI) DisplayRunResults(ctx context.Context, results []m.PackageRunResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if results == nil {
		results = []m.PackageRunResult{}
	}

	return j.write(RunResult{Results: results})
}

// DisplayFingerprints implements UI. Every file is always included.
func (j *JSONUI) DisplayFingerprints(ctx context.Context, fingerprints []m.PackageFingerprint, _ bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if fingerprints == nil {
		fingerprints = []m.PackageFingerprint{}
	}

	return j.write(HashResult{Fingerprints: fingerprints})
}

func (j *JSONUI) write(v any) error {
	enc := json.NewEncoder(j.cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
