package cli

import (
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	// no config or logging needed
	PersistentPreRun: func(*cobra.Command, []string) {},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("linesearch version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
