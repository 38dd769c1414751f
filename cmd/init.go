package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/qsh-sh/qsh/core/config"
)

// initCmd writes the default configuration file.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return config.Initialize(afero.NewOsFs(), configPath())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
