package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/samir-djili/obfuscator/internal/controller"
	"github.com/samir-djili/obfuscator/internal/domain"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available techniques",
		Long: `List the obfuscation techniques with the level that first enables each
one and their application order.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ui := controller.NewUI(cmd, controller.IsTTY(os.Stdout), verboseFlag)

			return ui.DisplayTechniques(cmd.Context(), domain.NewRegistry().All())
		},
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
