package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mrt.dev/pkg/mrt/internal/domain"
)

var runParallelFlag int
var runSwallowProbeErrFlag bool

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a script in all packages",
		Long: `Run a script in every valid package concurrently. A make target of the
same name takes precedence over the package's own script. Packages that do not
define the script are reported as skipped. The command fails when the script
fails in any package.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := currentWorkflow(cmd)
			if err != nil {
				return err
			}

			return wf.Run(cmd.Context(), domain.RunScriptArgs{
				ProjectArgs: projectArgs(),
				Script:      args[0],
				Parallel:    viper.GetInt(runParallelConfigKey),
			})
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&runParallelFlag, runParallelFlagName, "p", viper.GetInt(runParallelConfigKey), "maximum packages run at once (0 runs all at once)")
	bindFlagToConfig(cmd.Flags().Lookup(runParallelFlagName), runParallelConfigKey)
	cmd.Flags().BoolVar(&runSwallowProbeErrFlag, runSwallowProbeErrFlagName, viper.GetBool(runSwallowProbeErrKey), "treat a failing runner probe as \"cannot run\" and try the next runner")
	bindFlagToConfig(cmd.Flags().Lookup(runSwallowProbeErrFlagName), runSwallowProbeErrKey)
}
