package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
	"mrt.dev/pkg/mrt/internal/domain"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "mrt"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	manifestFlagName           = "manifest"
	outputFlagName             = "output"
	verboseFlagName            = "verbose"
	listAllFlagName            = "all"
	runParallelFlagName        = "parallel"
	runSwallowProbeErrFlagName = "ignore-probe-errors"
	hashFilesFlagName          = "files"
	hashCompareFlagName        = "compare"
	hashNoIgnoreFlagName       = "no-ignore"

	packagesConfigKey       = "packages"
	runParallelConfigKey    = "run.parallel"
	runSwallowProbeErrKey   = "run.ignore_probe_errors"
	hashIgnoreRulesKey      = "hash.ignore_rules"
	hashWorkersKey          = "hash.workers"
	defaultRunParallel      = 0
	defaultSwallowProbeErrs = false
	defaultHashIgnoreRules  = true
	defaultHashWorkers      = 0

	envPrefix = "MRT"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".mrt.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(packagesConfigKey, domain.DefaultPackagePatterns)
	viper.SetDefault(outputFlagName, "")
	viper.SetDefault(runParallelConfigKey, defaultRunParallel)
	viper.SetDefault(runSwallowProbeErrKey, defaultSwallowProbeErrs)
	viper.SetDefault(hashIgnoreRulesKey, defaultHashIgnoreRules)
	viper.SetDefault(hashWorkersKey, defaultHashWorkers)

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	_ = readManifest("", false)
}

// readManifest loads the manifest into viper. An explicitly requested
// manifest must exist; the default one is optional.
func readManifest(path string, required bool) error {
	if strings.TrimSpace(path) != "" {
		viper.SetConfigFile(path)
	}

	err := viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !required && (errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)) {
		return nil
	}

	return fmt.Errorf("read manifest %s: %w", viper.ConfigFileUsed(), err)
}

// projectRoot is the directory holding the manifest.
func projectRoot() string {
	manifest := viper.ConfigFileUsed()
	if manifest == "" {
		return configFolderPath
	}

	return filepath.Dir(manifest)
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) *slog.Logger {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	return globalLogger
}
