package controller

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	m "mrt.dev/pkg/mrt/internal/model"
	"mrt.dev/pkg/mrt/pkg/fingerprint"
)

func newTestCmd(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	return cmd, out
}

func samplePackages() []m.Package {
	return []m.Package{
		m.NewValidPackage("packages/web", "/repo/packages/web", "nodejs/npm", "web", "1.2.0"),
		m.NewValidPackage("apps/api", "/repo/apps/api", "python/poetry", "api", "0.3.1"),
		m.NewUndetectedPackage("packages/empty", "/repo/packages/empty"),
	}
}

func sampleResults() []m.PackageRunResult {
	pkgs := samplePackages()

	return []m.PackageRunResult{
		{Package: pkgs[0], Result: m.ScriptRunResult{Command: "npm run build", ResultType: m.Success(), Stdout: "built\n"}},
		{Package: pkgs[1], Result: m.ScriptRunResult{Command: "make build", ResultType: m.ExitCodeError(2), ExitCode: 2, Stderr: "boom\n"}},
		{Package: pkgs[2], Result: m.NoopResult()},
	}
}

func sampleFingerprints() []m.PackageFingerprint {
	pkgs := samplePackages()
	tree := fingerprint.Tree{
		Files: []fingerprint.FileFingerprint{
			{RelativePath: "index.js", Digest: "aa11"},
			{RelativePath: "package.json", Digest: "bb22"},
		},
		Skipped: []fingerprint.SkippedFile{{RelativePath: "broken-link", Reason: "dangling symlink"}},
	}

	return []m.PackageFingerprint{
		{Package: pkgs[0], Digest: tree.Digest(), Tree: tree},
		{
			Package: pkgs[1],
			Digest:  "cc33",
			Tree:    fingerprint.Tree{Files: []fingerprint.FileFingerprint{{RelativePath: "pyproject.toml", Digest: "cc33"}}},
			Changes: &fingerprint.Changes{Modified: []string{"pyproject.toml"}},
			Diff:    "--- previous/apps/api\n+++ current/apps/api\n",
		},
	}
}
