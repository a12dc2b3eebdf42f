package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	m "github.com/samir-djili/obfuscator/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "obfuscator"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName     = "output"
	reportsFlagName    = "reports"
	suffixFlagName     = "suffix"
	parallelFlagName   = "parallel"
	levelFlagName      = "level"
	techniqueFlagName  = "technique"
	patternFlagName    = "name-pattern"
	encodingFlagName   = "string-encoding"
	seedFlagName       = "seed"
	densityFlagName    = "density"
	smokeTestFlagName  = "smoke-test"
	maxRetriesFlagName = "max-retries"
	excludeFlagName    = "exclude-name"
	verboseFlagName    = "verbose"

	outputConfigKey     = "output"
	reportsConfigKey    = "reports"
	suffixConfigKey     = "run.suffix"
	parallelConfigKey   = "run.parallel"
	levelConfigKey      = "run.level"
	techniquesConfigKey = "run.techniques"
	patternConfigKey    = "run.name_pattern"
	encodingConfigKey   = "run.string_encoding"
	seedConfigKey       = "run.seed"
	randomSeedConfigKey = "run.randomize_seed"
	densityConfigKey    = "run.dead_code_density"
	smokeTestConfigKey  = "run.smoke_test"
	maxRetriesConfigKey = "run.max_retries"
	excludeConfigKey    = "names.exclude"

	defaultSuffix   = "_obf"
	defaultParallel = 4

	envPrefix = "OBFUSCATOR"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".obfuscator.log"
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

	defaults := m.DefaultConfig()

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputConfigKey, "")
	viper.SetDefault(reportsConfigKey, "")
	viper.SetDefault(suffixConfigKey, defaultSuffix)
	viper.SetDefault(parallelConfigKey, defaultParallel)
	viper.SetDefault(levelConfigKey, defaults.Level)
	viper.SetDefault(techniquesConfigKey, []string{})
	viper.SetDefault(patternConfigKey, string(defaults.NamePattern))
	viper.SetDefault(encodingConfigKey, string(defaults.StringEncoding))
	viper.SetDefault(seedConfigKey, defaults.Seed)
	viper.SetDefault(randomSeedConfigKey, defaults.RandomizeSeed)
	viper.SetDefault(densityConfigKey, defaults.DeadCodeDensity)
	viper.SetDefault(smokeTestConfigKey, defaults.SmokeTest)
	viper.SetDefault(maxRetriesConfigKey, defaults.MaxRetries)
	viper.SetDefault(excludeConfigKey, defaults.ExcludedPatterns)

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, int(slog.LevelInfo))
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

// buildConfig resolves the pipeline configuration from viper, which already
// merged defaults, the config file, environment, and bound flags.
func buildConfig() m.Config {
	cfg := m.Config{
		Level:            viper.GetInt(levelConfigKey),
		NamePattern:      m.NamePattern(viper.GetString(patternConfigKey)),
		StringEncoding:   m.StringEncoding(viper.GetString(encodingConfigKey)),
		RandomizeSeed:    viper.GetBool(randomSeedConfigKey),
		Seed:             viper.GetInt64(seedConfigKey),
		ExcludedPatterns: viper.GetStringSlice(excludeConfigKey),
		DeadCodeDensity:  viper.GetFloat64(densityConfigKey),
		SmokeTest:        viper.GetBool(smokeTestConfigKey),
		MaxRetries:       viper.GetInt(maxRetriesConfigKey),
	}

	for _, name := range viper.GetStringSlice(techniquesConfigKey) {
		cfg.Techniques = append(cfg.Techniques, m.TechniqueName(name))
	}

	return cfg
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
func configureLogger(verbose bool) {
	logPath := viper.GetString(logFilenameKey)
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
}
