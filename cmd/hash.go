package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mrt.dev/pkg/mrt/internal/domain"
	m "mrt.dev/pkg/mrt/internal/model"
)

var hashFilesFlag bool
var hashCompareFlag string
var hashNoIgnoreFlag bool

// hashCmd represents the hash command.
var hashCmd = newHashCmd()

func newHashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash [package...]",
		Short: "Fingerprint package contents",
		Long: `Compute BLAKE3 content fingerprints of packages, selected by name or
relative path (default: all valid packages). Hidden files and .gitignore
matches are skipped unless --no-ignore is given.

Save the output of "mrt hash -o json" and pass it to --compare on a later run
to see which files changed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if hashNoIgnoreFlag {
				viper.Set(hashIgnoreRulesKey, false)
			}

			wf, err := currentWorkflow(cmd)
			if err != nil {
				return err
			}

			return wf.Hash(cmd.Context(), domain.HashArgs{
				ProjectArgs: projectArgs(),
				Packages:    args,
				Files:       hashFilesFlag,
				Compare:     m.Path(hashCompareFlag),
			})
		},
	}

	cmd.Flags().BoolVar(&hashFilesFlag, hashFilesFlagName, false, "print the fingerprint of every file")
	cmd.Flags().StringVar(&hashCompareFlag, hashCompareFlagName, "", "JSON output of a previous hash run to compare against")
	cmd.Flags().BoolVar(&hashNoIgnoreFlag, hashNoIgnoreFlagName, false, "include hidden and .gitignore'd files")

	return cmd
}

func init() {
	rootCmd.AddCommand(hashCmd)
}
