package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a default mrt.yaml manifest",
		Long: `Create an mrt.yaml in the current working directory populated with the
current defaults, with a comment on every section, so it can be edited manually.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			data, err := renderDefaultManifest()
			if err != nil {
				return err
			}

			if err := writeNewFile(targetPath, data); err != nil {
				return err
			}

			cmd.Printf("wrote %s\n", targetPath)

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// createExclusive opens a file that must not exist yet.
var createExclusive = func(path string) (io.WriteCloser, error) {
	// #nosec G306 - the manifest is meant to be shared in the repository
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}

// writeNewFile writes data to a new file at path. The close error is
// returned since it may report a failed flush.
func writeNewFile(path string, data []byte) error {
	f, err := createExclusive(path)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("failed to write config file: %s already exists", path)
		}

		return fmt.Errorf("failed to write config file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

type manifestSection struct {
	key     string
	comment string
	value   any
}

// renderDefaultManifest builds the manifest as a YAML node tree so every
// section carries a head comment.
func renderDefaultManifest() ([]byte, error) {
	sections := []manifestSection{
		{key: configVersionKey, comment: "Manifest format version.", value: currentConfigVersion},
		{key: packagesConfigKey, comment: "Glob patterns of package directories, relative to this file.", value: viper.GetStringSlice(packagesConfigKey)},
		{key: "run", comment: "Defaults for `mrt run`. parallel: 0 runs every package at once.", value: map[string]any{
			"parallel":            viper.GetInt(runParallelConfigKey),
			"ignore_probe_errors": viper.GetBool(runSwallowProbeErrKey),
		}},
		{key: "hash", comment: "Defaults for `mrt hash`. workers: 0 uses one worker per CPU.", value: map[string]any{
			"ignore_rules": viper.GetBool(hashIgnoreRulesKey),
			"workers":      viper.GetInt(hashWorkersKey),
		}},
		{key: "log", comment: "Rotating log file settings.", value: map[string]any{
			"filename":    viper.GetString(logFilenameKey),
			"level":       parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo).String(),
			"max_size":    viper.GetInt(logMaxSizeKey),
			"max_backups": viper.GetInt(logMaxBackupsKey),
			"max_age":     viper.GetInt(logMaxAgeKey),
			"compress":    viper.GetBool(logCompressKey),
		}},
	}

	root := &yaml.Node{Kind: yaml.MappingNode}

	for _, section := range sections {
		var value yaml.Node
		if err := value.Encode(section.value); err != nil {
			return nil, fmt.Errorf("encode %s: %w", section.key, err)
		}

		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: section.key, HeadComment: section.comment}
		root.Content = append(root.Content, key, &value)
	}

	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	return buf.Bytes(), nil
}
