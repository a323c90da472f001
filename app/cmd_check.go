package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"statuswatch/app/internal/monitor"
)

// newCheckCmd creates the check subcommand
func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one probe and reconciliation cycle",
		Long: `Run a single cycle: probe every site, fill missed intervals, prune old
entries, save the history and evaluate alerts. Suitable for cron.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := a.runner().RunOnce(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	return cmd
}

func printReport(report *monitor.CycleReport) {
	names := make([]string, 0, len(report.Results))
	for name := range report.Results {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SITE\tSTATUS\tCODE\tLATENCY")
	for _, name := range names {
		r := report.Results[name]
		latency := "-"
		if r.MS != nil {
			latency = fmt.Sprintf("%dms", *r.MS)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", name, r.Status, r.Code, latency)
	}
	_ = w.Flush()

	for _, o := range report.Alerts {
		fmt.Printf("alert %s: %s (%s)\n", o.Site, o.Status, o.Decision)
	}
	fmt.Printf("cycle at %s took %s\n", report.Time.Format("2006-01-02 15:04:05 UTC"), report.Duration.Round(1e6))
}
