package cli

import (
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	// version needs no services
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, _ []string) {
		printf(cmd, "dedupe version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
