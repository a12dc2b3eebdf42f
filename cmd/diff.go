package cmd

import (
	"fmt"
	"os"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
)

var diffContextFlag int

// diffCmd represents the diff command.
var diffCmd = newDiffCmd()

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <original> <obfuscated>",
		Short: "Show a unified diff between an original file and its obfuscated output",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			original, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			obfuscated, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}

			text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(string(original)),
				B:        difflib.SplitLines(string(obfuscated)),
				FromFile: args[0],
				ToFile:   args[1],
				Context:  diffContextFlag,
			})
			if err != nil {
				return fmt.Errorf("diff: %w", err)
			}

			if text == "" {
				cmd.Println("files are identical")
				return nil
			}

			cmd.Print(text)

			return nil
		},
	}

	cmd.Flags().IntVarP(&diffContextFlag, "context", "c", 3, "lines of context around each change")

	return cmd
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
