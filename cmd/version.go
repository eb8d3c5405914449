package cmd

import (
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"mrt.dev/pkg/mrt/internal/domain"
)

// supportedArchetypes is listed by `mrt version` in registry priority order.
var supportedArchetypes = []string{domain.NpmArchetypeID, domain.PoetryArchetypeID}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the build version, the Go version used to build mrt and the supported package archetypes.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			version, goVersion := "unknown", "unknown"
			if info, ok := debug.ReadBuildInfo(); ok {
				if info.Main.Version != "" {
					version = info.Main.Version
				}

				goVersion = info.GoVersion
			}

			cmd.Println("mrt version\t", version)
			cmd.Println("go version\t", goVersion)
			cmd.Println("archetypes\t", strings.Join(supportedArchetypes, ", "))
		},
	}
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
