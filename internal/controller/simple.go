package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	m "mrt.dev/pkg/mrt/internal/model"
)

// SimpleUI implements UI with plain tables written to the command output.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(context.Context) {}

// Wait is a no-op: SimpleUI prints and continues.
func (s *SimpleUI) Wait(context.Context) {}

// Interactive implements UI.
func (s *SimpleUI) Interactive() bool { return false }

// Progress implements UI.
func (s *SimpleUI) Progress() Progress { return NoopProgress{} }

// DisplayPackages prints the package table.
func (s *SimpleUI) DisplayPackages(ctx context.Context, packages []m.Package) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderPackagesTable(packages))

	return nil
}

// DisplayRunResults prints the per-package result table.
func (s *SimpleUI) DisplayRunResults(ctx context.Context, results []m.PackageRunResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderRunResultsTable(results))

	return nil
}

// DisplayFingerprints prints package digests, and per-file digests when
// showFiles is set.
func (s *SimpleUI) DisplayFingerprints(ctx context.Context, fingerprints []m.PackageFingerprint, showFiles bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderFingerprints(fingerprints, showFiles))

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func newTable(buf *bytes.Buffer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(buf)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	return table
}

func renderPackagesTable(packages []m.Package) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"Name", "Version", "Path", "Archetype", "Status"})
	for _, pkg := range packages {
		archetype := pkg.ArchetypeID
		if archetype == "" {
			archetype = m.NotAvailable
		}

		table.Append([]string{pkg.Name, pkg.Version, string(pkg.RelativePath), archetype, pkg.Status.String()})
	}

	table.SetFooter([]string{fmt.Sprintf("Total %d", len(packages)), "", "", "", ""})
	table.Render()

	return buf.String()
}

func renderRunResultsTable(results []m.PackageRunResult) string {
	var buf bytes.Buffer

	succeeded, failed, skipped := 0, 0, 0

	table := newTable(&buf, []string{"", "Package", "Command", "Result", "Exit Code"})
	for _, r := range results {
		switch r.Result.ResultType.Kind {
		case m.ResultSuccess:
			succeeded++
		case m.ResultError:
			failed++
		default:
			skipped++
		}

		table.Append([]string{
			resultGlyph(r.Result.ResultType),
			r.Package.Name,
			r.Result.Command,
			r.Result.ResultType.String(),
			fmt.Sprintf("%d", r.Result.ExitCode),
		})
	}

	table.Render()

	return buf.String() + fmt.Sprintf("\n%d succeeded, %d failed, %d skipped\n", succeeded, failed, skipped)
}

func renderFingerprints(fingerprints []m.PackageFingerprint, showFiles bool) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"Package", "Path", "Files", "Digest", "Changes"})
	for _, fp := range fingerprints {
		table.Append([]string{
			fp.Package.Name,
			string(fp.Package.RelativePath),
			fmt.Sprintf("%d", len(fp.Tree.Files)),
			fp.Digest,
			describeChanges(fp),
		})
	}

	table.Render()

	out := buf.String()

	for _, fp := range fingerprints {
		if showFiles {
			var files bytes.Buffer

			ft := newTable(&files, []string{"Digest", fp.Package.Name})
			for _, f := range fp.Tree.Files {
				ft.Append([]string{f.Digest, f.RelativePath})
			}

			for _, skipped := range fp.Tree.Skipped {
				ft.Append([]string{"skipped: " + skipped.Reason, skipped.RelativePath})
			}

			ft.Render()

			out += "\n" + files.String()
		}

		if fp.Diff != "" {
			out += "\n" + fp.Diff
		}
	}

	return out
}

func describeChanges(fp m.PackageFingerprint) string {
	if fp.Changes == nil {
		return "-"
	}

	if fp.Changes.Empty() {
		return "unchanged"
	}

	return fmt.Sprintf("+%d -%d ~%d", len(fp.Changes.Added), len(fp.Changes.Removed), len(fp.Changes.Modified))
}
