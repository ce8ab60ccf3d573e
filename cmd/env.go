package cmd

import (
	"github.com/spf13/cobra"

	"github.com/inovacc/stanup/internal/envcmd"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print the effective tool environment",
	Run: func(cmd *cobra.Command, args []string) {
		envcmd.Print(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(envCmd)
}
