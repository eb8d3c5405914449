package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"mrt.dev/pkg/mrt/internal/domain"
)

func executeWith(t *testing.T, sub *cobra.Command, args ...string) error {
	t.Helper()

	cmd := newRootCmd()
	cmd.AddCommand(sub)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	return cmd.Execute()
}

func TestRunCmd_PassesScriptAndParallelism(t *testing.T) {
	mockWorkflow := useMockWorkflow(t)

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunScriptArgs) bool {
		return args.Script == "build" &&
			args.Parallel == 2 &&
			assert.ObjectsAreEqual(domain.DefaultPackagePatterns, args.Patterns)
	})).Return(nil)

	err := executeWith(t, newRunCmd(), "run", "--parallel", "2", "build")
	require.NoError(t, err)
}

func TestRunCmd_DefaultParallelism(t *testing.T) {
	mockWorkflow := useMockWorkflow(t)

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunScriptArgs) bool {
		return args.Script == "test" && args.Parallel == defaultRunParallel
	})).Return(nil)

	require.NoError(t, executeWith(t, newRunCmd(), "run", "test"))
}

func TestRunCmd_FailurePropagates(t *testing.T) {
	mockWorkflow := useMockWorkflow(t)

	mockWorkflow.On("Run", mock.Anything, mock.Anything).Return(domain.ErrScriptFailed)

	err := executeWith(t, newRunCmd(), "run", "build")
	require.ErrorIs(t, err, domain.ErrScriptFailed)
}

func TestRunCmd_RequiresScript(t *testing.T) {
	useMockWorkflow(t)

	err := executeWith(t, newRunCmd(), "run")
	require.Error(t, err)
}

func TestRunCmd_Flags(t *testing.T) {
	cmd := newRunCmd()

	parallel := cmd.Flags().Lookup(runParallelFlagName)
	require.NotNil(t, parallel)
	assert.Equal(t, "p", parallel.Shorthand)

	assert.NotNil(t, cmd.Flags().Lookup(runSwallowProbeErrFlagName))
}
