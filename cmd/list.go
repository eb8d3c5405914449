package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mrt.dev/pkg/mrt/internal/domain"
)

const listAllConfigKey = "list.all"

var listAllFlag bool

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List detected packages",
		Long: `List the packages found by the manifest globs. Packages that cannot be
read or classified are left out (and logged) unless --all is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wf, err := currentWorkflow(cmd)
			if err != nil {
				return err
			}

			return wf.List(cmd.Context(), domain.ListArgs{
				ProjectArgs: projectArgs(),
				All:         viper.GetBool(listAllConfigKey),
			})
		},
	}

	cmd.Flags().BoolVarP(&listAllFlag, listAllFlagName, "a", false, "include packages that cannot be read or classified")
	bindFlagToConfig(cmd.Flags().Lookup(listAllFlagName), listAllConfigKey)

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
