package cmd

import (
	"github.com/spf13/cobra"

	"github.com/inovacc/stanup/internal/component"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the local release index fresh on a schedule",
	RunE:  component.MainComponent,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
