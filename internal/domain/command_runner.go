package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"mrt.dev/pkg/mrt/internal/adapter"
	m "mrt.dev/pkg/mrt/internal/model"
)

// CommandRunner invokes one external tool in a package directory.
type CommandRunner struct {
	tool string
	proc adapter.ProcessAdapter
}

// NewCommandRunner constructs a CommandRunner for tool.
func NewCommandRunner(tool string, proc adapter.ProcessAdapter) *CommandRunner {
	return &CommandRunner{tool: tool, proc: proc}
}

// Describe returns the human-readable command line for args.
func (c *CommandRunner) Describe(args []string) string {
	if len(args) == 0 {
		return c.tool
	}

	return c.tool + " " + strings.Join(args, " ")
}

// Succeeds runs the tool quietly and reports whether it exited with code 0.
func (c *CommandRunner) Succeeds(ctx context.Context, args []string, rc RunContext) (bool, error) {
	res, err := c.proc.Run(ctx, adapter.ProcessSpec{
		Name: c.tool,
		Args: args,
		Dir:  rc.Package.AbsolutePath,
	})
	if err != nil {
		return false, err
	}

	return res.Exited && res.ExitCode == 0, nil
}

// DecodeJSON runs the tool and decodes its stdout into v. Empty output
// leaves v untouched.
func (c *CommandRunner) DecodeJSON(ctx context.Context, args []string, rc RunContext, v any) error {
	command := c.Describe(args)

	res, err := c.proc.Run(ctx, adapter.ProcessSpec{
		Name: c.tool,
		Args: args,
		Dir:  rc.Package.AbsolutePath,
	})
	if err != nil {
		return err
	}

	if !res.Exited || res.ExitCode != 0 {
		return fmt.Errorf("`%s` exited with code %d: %s", command, res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	if strings.TrimSpace(res.Stdout) == "" {
		return nil
	}

	if err := json.Unmarshal([]byte(res.Stdout), v); err != nil {
		return fmt.Errorf("decode output of `%s`: %w", command, err)
	}

	return nil
}

// RunScript runs the tool with its output streamed to the context's reporter
// and classifies the outcome.
func (c *CommandRunner) RunScript(ctx context.Context, args []string, rc RunContext) (m.ScriptRunResult, error) {
	command := c.Describe(args)
	reporter := rc.reporter()

	res, err := c.proc.Run(ctx, adapter.ProcessSpec{
		Name: c.tool,
		Args: args,
		Dir:  rc.Package.AbsolutePath,
		OnStdoutLine: func(line string) {
			reporter.ReportOutput(command, line)
		},
	})
	if err != nil {
		return m.ScriptRunResult{Command: command, ResultType: m.Error(err.Error()), ExitCode: -1}, err
	}

	return classifyProcess(command, res), nil
}

// classifyProcess maps an exit status onto a result: 0 is Success, any other
// code is an error, and no exit code at all is Noop.
func classifyProcess(command string, res adapter.ProcessResult) m.ScriptRunResult {
	result := m.ScriptRunResult{
		Command:  command,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	}

	switch {
	case !res.Exited:
		result.ResultType = m.Noop()
	case res.ExitCode == 0:
		result.ResultType = m.Success()
	default:
		result.ResultType = m.ExitCodeError(res.ExitCode)
	}

	return result
}
