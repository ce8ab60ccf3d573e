package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inovacc/stanup/internal/config"
	"github.com/inovacc/stanup/internal/installer"
	"github.com/inovacc/stanup/internal/releases"
)

var listInstalled bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List published toolchain versions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listInstalled {
			inst, err := installer.NewInstaller(cmd.Context(), config.GetConfig.InstallHome(), nil, nil)
			if err != nil {
				return err
			}

			versions, err := inst.Installed()
			if err != nil {
				return err
			}

			for _, v := range versions {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		}

		versions, err := releases.NewClient().ListVersions(cmd.Context())
		if err != nil {
			return err
		}

		for _, v := range versions {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listInstalled, "installed", false, "list locally installed versions instead")

	rootCmd.AddCommand(listCmd)
}
