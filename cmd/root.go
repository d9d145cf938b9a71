package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the meetlink application
var rootCmd = &cobra.Command{
	Use:   "meetlink",
	Short: "Creates Google Meet links through the Calendar API",
	Long: `meetlink is a small web service that creates Google Meet links on demand.

It exposes a JSON API for creating instant meetings (starting now) and
scheduled meetings (starting at a future time), backed by the Google
Calendar API. Each authenticated user gets an in-memory history of the
meetings created during their session.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "meetlink version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
