package cmd

import (
	"github.com/spf13/cobra"

	"github.com/inovacc/stanup/internal/config"
	"github.com/inovacc/stanup/internal/installer"
)

var cleanAll bool

var cleanCmd = &cobra.Command{
	Use:   "clean [version]",
	Short: "Remove an installed toolchain version",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := installer.NewInstaller(cmd.Context(), config.GetConfig.InstallHome(), nil, nil)
		if err != nil {
			return err
		}

		if cleanAll {
			return inst.CleanAll()
		}

		if len(args) == 0 {
			return cmd.Help()
		}
		return inst.Uninstall(args[0])
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "remove every installed version")

	rootCmd.AddCommand(cleanCmd)
}
