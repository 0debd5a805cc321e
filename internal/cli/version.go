package cmd

import (
	"fmt"

	"github.com/rohmanhakim/fic-roulette/internal/build"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), build.Summary())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
