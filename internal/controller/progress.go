package controller

import m "mrt.dev/pkg/mrt/internal/model"

// ProgressReporter receives streamed output of a running command.
// Implementations must be safe for concurrent use.
type ProgressReporter interface {
	ReportOutput(command, line string)
}

// UnitReporter is the reporter owned by one package's unit of work.
type UnitReporter interface {
	ProgressReporter
	// Finish finalizes the unit's status line.
	Finish(result m.ScriptRunResult)
}

// Progress hands out one UnitReporter per package.
type Progress interface {
	Unit(pkg m.Package) UnitReporter
}

// NoopProgress discards all progress. It is used in non-interactive runs.
type NoopProgress struct{}

// Unit implements Progress.
func (NoopProgress) Unit(m.Package) UnitReporter { return noopUnit{} }

type noopUnit struct{}

func (noopUnit) ReportOutput(string, string) {}
func (noopUnit) Finish(m.ScriptRunResult) {}
