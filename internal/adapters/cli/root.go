// Package cli provides the linesearch command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/linesearch-go/internal/config"
	"github.com/0xcro3dile/linesearch-go/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfgFile string
	verbose bool

	// appConfig is resolved before any subcommand runs.
	appConfig *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "linesearch",
	Short: "Load text sources and search them line by line",
	Long: `linesearch loads newline-delimited text from local files, URLs and
GitHub, keeps every non-blank line as a record, and filters the records
with a case-insensitive substring search.

Run "linesearch serve" for the browser UI, "linesearch tui" for the
terminal UI, or "linesearch search" for a one-shot query.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default ./linesearch.yaml, ./linesearch.toml or ~/.config/linesearch/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	var err error
	if cfgFile != "" {
		appConfig, err = config.Load(cfgFile)
	} else {
		appConfig, _, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}

	level := appConfig.Log.Level
	if verbose {
		level = "debug"
	}
	_, err = logging.Setup(cmd.ErrOrStderr(), level, appConfig.Log.Format)
	return err
}
