package model

import "fmt"

// ResultKind categorises the outcome of a script run.
type ResultKind string

const (
	// ResultSuccess indicates the script exited with code 0.
	ResultSuccess ResultKind = "success"
	// ResultError indicates the script failed or could not be run.
	ResultError ResultKind = "error"
	// ResultNoop indicates nothing was run (script not defined, or no exit code).
	ResultNoop ResultKind = "noop"
)

// ResultType is the outcome of a script run. Message is set for errors only.
type ResultType struct {
	Kind    ResultKind `json:"kind"`
	Message string     `json:"message,omitempty"`
}

// Success returns the success outcome.
func Success() ResultType { return ResultType{Kind: ResultSuccess} }

// Noop returns the no-op outcome.
func Noop() ResultType { return ResultType{Kind: ResultNoop} }

// Error returns an error outcome carrying message.
func Error(message string) ResultType { return ResultType{Kind: ResultError, Message: message} }

// ExitCodeError returns the error outcome for a nonzero exit code.
func ExitCodeError(code int) ResultType {
	return Error(fmt.Sprintf("Exit code %d", code))
}

func (r ResultType) String() string {
	switch r.Kind {
	case ResultSuccess:
		return "Success"
	case ResultNoop:
		return "Noop"
	case ResultError:
		return "Error(" + r.Message + ")"
	}

	return string(r.Kind)
}

// ScriptRunResult is the outcome of running one script in one package.
type ScriptRunResult struct {
	Command    string     `json:"command"`
	ResultType ResultType `json:"result_type"`
	ExitCode   int        `json:"exit_code"`
	Stdout     string     `json:"stdout"`
	Stderr     string     `json:"stderr"`
}

// NoopResult is returned when no runner in a chain can run the script.
func NoopResult() ScriptRunResult {
	return ScriptRunResult{ResultType: Noop()}
}

// Failed reports whether the result is an error.
func (r ScriptRunResult) Failed() bool {
	return r.ResultType.Kind == ResultError
}

// PackageRunResult pairs a package with the outcome of its script run.
type PackageRunResult struct {
	Package Package         `json:"package"`
	Result  ScriptRunResult `json:"result"`
}
