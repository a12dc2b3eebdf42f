// Package cmd provides the root command and CLI setup for the obfuscator.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/samir-djili/obfuscator/internal/adapter"
)

var fsAdapter adapter.SourceFSAdapter
var languageDetector adapter.LanguageDetector
var reportStore adapter.ReportStore

// outputDirFlag mirrors inputs into a separate directory when set.
var outputDirFlag string

// reportsFlag is where the YAML run report is written.
var reportsFlag string

// verboseFlag raises file logging to debug and makes the plain UI chattier.
var verboseFlag bool

func init() {
	configureRootFlags(rootCmd)

	fsAdapter = adapter.NewSourceFS()
	languageDetector = adapter.NewLanguageDetector()
	reportStore = adapter.NewReportStore()
}

const rootLongDescription = `Obfuscator rewrites Python source files so they stay functionally
equivalent but are much harder to read: string and numeric literals are
replaced with reconstruction expressions, identifiers are renamed, imports
go through dynamic lookups, and inert statements are mixed in.

Every output is validated before it replaces anything; when no valid
output can be produced the original file is kept untouched.`

const runLongDescription = `Obfuscate the given files or directories (default: current directory).

Level picks a cumulative technique bundle:
  1  literal encoding (strings and numbers)
  2  level 1 plus identifier renaming
  3  level 2 plus dead code and import indirection
  4  alias for level 3

Individual techniques can be selected instead with --technique.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "obfuscator",
		Short: "Source code obfuscation tool",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(verboseFlag)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(
		&outputDirFlag, outputFlagName, "o",
		viper.GetString(outputConfigKey),
		"output directory (default: write siblings with a suffix)",
	)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputConfigKey)

	cmd.PersistentFlags().StringVarP(
		&reportsFlag, reportsFlagName, "r",
		viper.GetString(reportsConfigKey),
		"write a YAML run report to this path",
	)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(reportsFlagName), reportsConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", false, "enable debug logging")
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
