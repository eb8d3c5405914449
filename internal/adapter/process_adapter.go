package adapter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	m "mrt.dev/pkg/mrt/internal/model"
)

// ProcessSpec describes one child process invocation.
type ProcessSpec struct {
	Name string
	Args []string
	Dir  m.Path
	// OnStdoutLine, when set, receives every stdout line (without the line
	// terminator) synchronously as it is read.
	OnStdoutLine func(line string)
}

// ProcessResult is the captured outcome of a finished child process.
type ProcessResult struct {
	Stdout string
	Stderr string
	// ExitCode is -1 when the process did not exit normally.
	ExitCode int
	// Exited is false when no exit code could be obtained (e.g. the process
	// was terminated by a signal).
	Exited bool
}

// ProcessAdapter abstracts spawning external tools.
type ProcessAdapter interface {
	// Run starts the process, streams its stdout and waits for it to finish.
	// A nonzero exit is not an error; failing to start or wait is.
	Run(ctx context.Context, spec ProcessSpec) (ProcessResult, error)
}

// LocalProcessAdapter runs processes with os/exec.
type LocalProcessAdapter struct{}

// NewLocalProcessAdapter constructs a LocalProcessAdapter.
func NewLocalProcessAdapter() *LocalProcessAdapter {
	return &LocalProcessAdapter{}
}

// Run implements ProcessAdapter.
func (a *LocalProcessAdapter) Run(ctx context.Context, spec ProcessSpec) (ProcessResult, error) {
	// #nosec G204 - the tool name and arguments are chosen by the runners
	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = string(spec.Dir)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return ProcessResult{ExitCode: -1}, fmt.Errorf("stdout pipe for %s: %w", spec.Name, err)
	}

	if err := cmd.Start(); err != nil {
		return ProcessResult{ExitCode: -1}, fmt.Errorf("start %s: %w", spec.Name, err)
	}

	stdout, readErr := readLines(stdoutPipe, spec.OnStdoutLine)

	waitErr := cmd.Wait()

	result := ProcessResult{
		Stdout:   stdout,
		Stderr:   stderr.String(),
		ExitCode: -1,
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return result, fmt.Errorf("wait %s: %w", spec.Name, waitErr)
		}
	}

	if readErr != nil {
		return result, fmt.Errorf("read stdout of %s: %w", spec.Name, readErr)
	}

	if state := cmd.ProcessState; state != nil && state.ExitCode() >= 0 {
		result.ExitCode = state.ExitCode()
		result.Exited = true
	}

	return result, nil
}

// readLines accumulates everything read from r while forwarding each line.
// A bufio.Reader is used instead of a Scanner so long lines are not cut.
func readLines(r io.Reader, onLine func(string)) (string, error) {
	var out strings.Builder

	reader := bufio.NewReader(r)

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			out.WriteString(line)

			if onLine != nil {
				onLine(strings.TrimRight(line, "\r\n"))
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return out.String(), nil
			}

			return out.String(), err
		}
	}
}
