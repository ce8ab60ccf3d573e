package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inovacc/stanup/internal/releases"
)

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the latest published toolchain version",
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := releases.NewClient().LatestVersion(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(latestCmd)
}
