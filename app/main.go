package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version info (set by ldflags)
	version = "dev"

	// Flags
	sitesFile  string
	logLevel   string
	jsonOutput bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "statuswatch",
		Short: "Uptime monitor with a public status dashboard",
		Long: `statuswatch probes a list of websites on a fixed interval, keeps a rolling
history of their status, alerts on status changes and serves a status page.

  statuswatch serve     Run the scheduler and the dashboard
  statuswatch check     Run a single probe cycle (cron friendly)
  statuswatch status    Print the current status of every site
  statuswatch events    Print recent operator events`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&sitesFile, "sites", "", "sites file (overrides SITES_FILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(
		newServeCmd(),
		newCheckCmd(),
		newStatusCmd(),
		newEventsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
