// Package cmd holds the qsh command line interface.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/qsh-sh/qsh/core/config"
	"github.com/qsh-sh/qsh/core/shell"
)

var (
	cfgPath string
	command string

	exitStatus int
)

// rootCmd runs the interactive shell when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "qsh",
	Short: "An interactive Unix shell with syscall profiling",
	Long: `qsh reads command lines from the terminal, runs pipelines with
redirections and job control, and can profile a process's syscalls
through ptrace.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()
		cfg, err := config.Load(fs, configPath())
		if err != nil {
			exitStatus = 1
			return err
		}

		sh, err := shell.New(cfg, fs)
		if err != nil {
			exitStatus = 1
			return err
		}

		if command != "" {
			exitStatus = sh.Execute(command)
			return nil
		}

		if err := sh.Run(); err != nil {
			exitStatus = 1
			return err
		}
		exitStatus = sh.ExitStatus()
		return nil
	},
}

// configPath resolves the configuration file location: --config wins, then
// $HOME/.qsh.yaml.
func configPath() string {
	if cfgPath != "" {
		return cfgPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return config.FileName
	}
	return filepath.Join(home, config.FileName)
}

// Execute runs the root command; the return value is the process exit
// status.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "qsh: %v\n", err)
		if exitStatus == 0 {
			exitStatus = 1
		}
	}
	return exitStatus
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path")
	rootCmd.Flags().StringVarP(&command, "command", "c", "", "run a single command line and exit")
}
