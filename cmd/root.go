// Package cmd provides the root command and CLI setup for mrt.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"mrt.dev/pkg/mrt/internal/adapter"
	"mrt.dev/pkg/mrt/internal/controller"
	"mrt.dev/pkg/mrt/internal/domain"
	m "mrt.dev/pkg/mrt/internal/model"
	"mrt.dev/pkg/mrt/pkg/fingerprint"
)

var fsAdapter adapter.SourceFSAdapter
var processAdapter adapter.ProcessAdapter

// workflow is built on first use from the parsed flags and manifest.
var workflow domain.Workflow

var manifestFlag string
var outputFlag string
var verboseFlag bool

func init() {
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	processAdapter = adapter.NewLocalProcessAdapter()
}

const rootLongDescription = `mrt (MonoRepo Tool) runs scripts across the packages of a monorepo.

Packages are discovered from the glob patterns listed under "packages" in the
manifest (mrt.yaml; defaults: ./packages/*, ./apps/*). Each package is
classified by archetype (nodejs/npm, python/poetry) and scripts are resolved
through make first, then the package's own tool.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "mrt",
		Short:         "MonoRepo Tool",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&manifestFlag, manifestFlagName, "m", "", "path to the manifest file (default ./"+configFileName+")")
	cmd.PersistentFlags().StringVarP(&outputFlag, outputFlagName, "o", viper.GetString(outputFlagName), "output format (json)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)
	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if err := readManifest(manifestFlag, manifestFlag != ""); err != nil {
			return err
		}

		configureLogger("", viper.GetBool(logVerboseKey))

		return nil
	}
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// currentWorkflow returns the workflow, building it for cmd if none is set.
func currentWorkflow(cmd *cobra.Command) (domain.Workflow, error) {
	if workflow != nil {
		return workflow, nil
	}

	format, err := controller.ParseOutputFormat(viper.GetString(outputFlagName))
	if err != nil {
		return nil, err
	}

	ui := controller.NewUI(cmd, controller.IsTTY(os.Stdout), format)

	var opts []domain.WrapperOption
	if viper.GetBool(runSwallowProbeErrKey) {
		opts = append(opts, domain.SwallowProbeErrors())
	}

	registry := domain.NewDefaultRegistry(fsAdapter, processAdapter, globalLogger, opts...)
	engine := fingerprint.NewEngine(
		fingerprint.WithLogger(globalLogger),
		fingerprint.WithIgnoreRules(viper.GetBool(hashIgnoreRulesKey)),
		fingerprint.WithWorkers(viper.GetInt(hashWorkersKey)),
	)

	workflow = domain.NewWorkflow(fsAdapter, ui, registry, engine, globalLogger)

	return workflow, nil
}

func projectArgs() domain.ProjectArgs {
	return domain.ProjectArgs{
		Root:     m.Path(projectRoot()),
		Patterns: viper.GetStringSlice(packagesConfigKey),
	}
}
