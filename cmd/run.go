package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/samir-djili/obfuscator/internal/controller"
	"github.com/samir-djili/obfuscator/internal/domain"
)

var (
	runParallelFlag   int
	runLevelFlag      int
	runTechniquesFlag []string
	runPatternFlag    string
	runEncodingFlag   string
	runSeedFlag       int64
	runDensityFlag    float64
	runSmokeTestFlag  bool
	runMaxRetriesFlag int
	runSuffixFlag     string
	runExcludeFlag    []string
)

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Obfuscate source files",
		Long:  runLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}

			cfg := buildConfig()

			// An explicit seed means a reproducible run.
			if cmd.Flags().Changed(seedFlagName) {
				cfg.RandomizeSeed = false
			}

			pipeline := domain.NewPipeline(cfg, domain.NewRegistry(), domain.NewValidator(cfg.SmokeTest))
			ui := controller.NewUI(cmd, controller.IsTTY(os.Stdout), verboseFlag)
			workflow := domain.NewWorkflow(fsAdapter, languageDetector, reportStore, ui, pipeline)

			_, err := workflow.Run(cmd.Context(), domain.RunArgs{
				Paths:   args,
				OutDir:  viper.GetString(outputConfigKey),
				Suffix:  viper.GetString(suffixConfigKey),
				Reports: viper.GetString(reportsConfigKey),
				Threads: viper.GetInt(parallelConfigKey),
			})

			return err
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&runParallelFlag, parallelFlagName, "p", viper.GetInt(parallelConfigKey), "number of files processed in parallel")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), parallelConfigKey)

	cmd.Flags().IntVarP(&runLevelFlag, levelFlagName, "l", viper.GetInt(levelConfigKey), "obfuscation level (1-4)")
	bindFlagToConfig(cmd.Flags().Lookup(levelFlagName), levelConfigKey)

	cmd.Flags().StringArrayVarP(&runTechniquesFlag, techniqueFlagName, "t", viper.GetStringSlice(techniquesConfigKey), "technique to apply, overriding the level (can be repeated)")
	bindFlagToConfig(cmd.Flags().Lookup(techniqueFlagName), techniquesConfigKey)

	cmd.Flags().StringVar(&runPatternFlag, patternFlagName, viper.GetString(patternConfigKey), "generated identifier style: random, hex, sequential")
	bindFlagToConfig(cmd.Flags().Lookup(patternFlagName), patternConfigKey)

	cmd.Flags().StringVarP(&runEncodingFlag, encodingFlagName, "e", viper.GetString(encodingConfigKey), "string encoding: charcode, hex, base64")
	bindFlagToConfig(cmd.Flags().Lookup(encodingFlagName), encodingConfigKey)

	cmd.Flags().Int64Var(&runSeedFlag, seedFlagName, viper.GetInt64(seedConfigKey), "RNG seed for reproducible output")
	bindFlagToConfig(cmd.Flags().Lookup(seedFlagName), seedConfigKey)

	cmd.Flags().Float64Var(&runDensityFlag, densityFlagName, viper.GetFloat64(densityConfigKey), "dead code insertion probability per statement boundary")
	bindFlagToConfig(cmd.Flags().Lookup(densityFlagName), densityConfigKey)

	cmd.Flags().BoolVar(&runSmokeTestFlag, smokeTestFlagName, viper.GetBool(smokeTestConfigKey), "byte-compile outputs with python3 when available")
	bindFlagToConfig(cmd.Flags().Lookup(smokeTestFlagName), smokeTestConfigKey)

	cmd.Flags().IntVar(&runMaxRetriesFlag, maxRetriesFlagName, viper.GetInt(maxRetriesConfigKey), "retry bound for the validity gate")
	bindFlagToConfig(cmd.Flags().Lookup(maxRetriesFlagName), maxRetriesConfigKey)

	cmd.Flags().StringVar(&runSuffixFlag, suffixFlagName, viper.GetString(suffixConfigKey), "output filename suffix when no output directory is set")
	bindFlagToConfig(cmd.Flags().Lookup(suffixFlagName), suffixConfigKey)

	cmd.Flags().StringArrayVarP(&runExcludeFlag, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "identifier substring never renamed (can be repeated)")
	bindFlagToConfig(cmd.Flags().Lookup(excludeFlagName), excludeConfigKey)
}
