package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lethe",
	Short: "A process that forgets what it can do",
	Long:  "Lethe runs a simulated process whose capabilities progressively and irreversibly degrade, with a safety layer keeping it minimally alive.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(journalCmd)
}
