package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/inovacc/stanup/internal/config"
	"github.com/inovacc/stanup/internal/database"
	"github.com/inovacc/stanup/internal/downloader"
	"github.com/inovacc/stanup/internal/git"
	"github.com/inovacc/stanup/internal/index"
	"github.com/inovacc/stanup/internal/installer"
	"github.com/inovacc/stanup/internal/releases"
)

var (
	installOverwrite bool
	installCores     int
	installDir       string
	installFromGit   string
)

var installCmd = &cobra.Command{
	Use:   "install [version]",
	Short: "Download, build and install a toolchain release",
	Long: `Download the release archive for a version, unpack it under the install
home and build it. Without a version argument the latest published release is
installed. With --from-git a development snapshot of the given ref is cloned
instead of a release archive.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig

		home := cfg.InstallHome()
		if installDir != "" {
			home = installDir
		}

		cores := cfg.Installer.Cores
		if installCores > 0 {
			cores = installCores
		}

		if installFromGit != "" {
			dest := filepath.Join(home, fmt.Sprintf("cmdstan-%s", installFromGit))
			return git.Snapshot(cmd.Context(), dest, installFromGit)
		}

		client := releases.NewClient()

		version := ""
		if len(args) == 1 {
			version = args[0]
		}
		if version == "" {
			latest, err := client.LatestVersion(cmd.Context())
			if err != nil {
				return err
			}
			version = latest
		}

		if err := database.NewDatabase(); err != nil {
			return err
		}
		defer database.CloseConnection()

		idx, err := index.NewIndex(cmd.Context(), database.GetConnection())
		if err != nil {
			return err
		}

		dl := downloader.NewDownloader(client)

		inst, err := installer.NewInstaller(cmd.Context(), home, dl, idx,
			installer.WithCores(cores),
			installer.WithBuildTimeout(time.Duration(cfg.Installer.BuildTimeout)*time.Minute),
		)
		if err != nil {
			return err
		}

		return inst.Install(version, installOverwrite)
	},
}

func init() {
	installCmd.Flags().BoolVar(&installOverwrite, "overwrite", false, "reinstall even if the version is already present")
	installCmd.Flags().IntVar(&installCores, "cores", 0, "parallel make jobs for the build")
	installCmd.Flags().StringVar(&installDir, "dir", "", "install home (overrides config and CMDSTAN)")
	installCmd.Flags().StringVar(&installFromGit, "from-git", "", "clone a development snapshot of the given ref")

	rootCmd.AddCommand(installCmd)
}
