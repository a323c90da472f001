package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// newEventsCmd creates the events subcommand
func newEventsCmd() *cobra.Command {
	var (
		limit                 int
		level, category, site string
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print recent operator events",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			logs, err := a.db.GetLogs(limit, level, category, site, 0)
			if err != nil {
				return fmt.Errorf("read event log: %w", err)
			}
			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(logs)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tLEVEL\tCATEGORY\tSITE\tMESSAGE\tDETAILS")
			for _, e := range logs {
				when := e.Timestamp
				if t, err := time.Parse("2006-01-02 15:04:05", e.Timestamp); err == nil {
					when = humanize.Time(t)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", when, e.Level, e.Category, e.Site, e.Message, e.Details)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of events")
	cmd.Flags().StringVar(&level, "level", "", "filter by level")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().StringVar(&site, "site", "", "filter by site")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	return cmd
}
