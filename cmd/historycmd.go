package cmd

import (
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/qsh-sh/qsh/core/config"
	"github.com/qsh-sh/qsh/core/history"
)

// historyCmd dumps the persisted command history without starting a
// shell.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the persisted command history.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		fs := afero.NewOsFs()
		cfg, err := config.Load(fs, configPath())
		if err != nil {
			return err
		}

		path := cfg.HistoryFile
		if path == "~" || strings.HasPrefix(path, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				path = home + path[1:]
			}
		}

		ring := history.New(fs, path)
		if err := ring.Load(); err != nil {
			return err
		}
		ring.Write(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
