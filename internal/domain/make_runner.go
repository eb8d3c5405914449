package domain

import (
	"context"

	"mrt.dev/pkg/mrt/internal/adapter"
	m "mrt.dev/pkg/mrt/internal/model"
)

// makefileNames are the files GNU make looks for, in its lookup order.
var makefileNames = []string{"GNUmakefile", "makefile", "Makefile"}

// MakeRunner is the generic build-file runner. It asks make itself whether a
// target exists with a dry run instead of parsing the makefile.
type MakeRunner struct {
	make *CommandRunner
	fs   adapter.SourceFSAdapter
}

// NewMakeRunner constructs a MakeRunner.
func NewMakeRunner(proc adapter.ProcessAdapter, fs adapter.SourceFSAdapter) *MakeRunner {
	return &MakeRunner{
		make: NewCommandRunner("make", proc),
		fs:   fs,
	}
}

// Name implements ScriptRunner.
func (r *MakeRunner) Name() string { return "make" }

// CanRun probes with `make -n <script>`. Packages without a makefile are
// answered without invoking make.
func (r *MakeRunner) CanRun(ctx context.Context, rc RunContext) (bool, error) {
	if !r.hasMakefile(rc.Package.AbsolutePath) {
		return false, nil
	}

	ok, err := r.make.Succeeds(ctx, []string{"-n", rc.Script}, rc)
	if err != nil {
		return false, &ProbeError{Runner: r.Name(), Err: err}
	}

	return ok, nil
}

// Run executes `make <script>`.
func (r *MakeRunner) Run(ctx context.Context, rc RunContext) (m.ScriptRunResult, error) {
	result, err := r.make.RunScript(ctx, []string{rc.Script}, rc)
	if err != nil {
		return result, &ExecError{Runner: r.Name(), Err: err}
	}

	return result, nil
}

func (r *MakeRunner) hasMakefile(dir m.Path) bool {
	for _, name := range makefileNames {
		if r.fs.FileExists(r.fs.JoinPath(string(dir), name)) {
			return true
		}
	}

	return false
}
