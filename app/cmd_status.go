package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"statuswatch/app/internal/stats"
)

// newStatusCmd creates the status subcommand
func newStatusCmd() *cobra.Command {
	var plot bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the current status of every site",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			h, err := a.historyStore().Load()
			if err != nil {
				a.log.Warn("history unreadable", "err", err)
			}
			ov := stats.BuildOverview(a.sites, h, a.statsOptions(), time.Now())

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(ov)
			}
			printOverview(ov, plot)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.Flags().BoolVar(&plot, "plot", true, "draw an availability chart per site")
	return cmd
}

func printOverview(ov stats.Overview, plot bool) {
	fmt.Printf("Overall: %s  (%d services, %d with data, %.1f%% average uptime)\n\n",
		ov.Overall, ov.TotalServices, ov.SitesWithData, ov.AverageUptime)

	for _, s := range ov.Sites {
		if !s.HasData {
			fmt.Printf("%s\n  no data yet\n\n", s.Name)
			continue
		}
		snap := s.Snapshot
		fmt.Printf("%s  [%s]\n", s.Name, snap.Badge)
		fmt.Printf("  uptime %.2f%%  checks %d  incidents %d  last checked %s (%s)\n",
			snap.Uptime, snap.UpCount, snap.DownCount, humanize.Time(snap.LastChecked), snap.Current)

		if plot && len(snap.Chart) > 1 {
			values := make([]float64, len(snap.Chart))
			for i, p := range snap.Chart {
				values[i] = p.Value
			}
			fmt.Println(asciigraph.Plot(values,
				asciigraph.Height(3),
				asciigraph.Width(60),
				asciigraph.LowerBound(0),
				asciigraph.UpperBound(1),
				asciigraph.Offset(4),
				asciigraph.Caption(fmt.Sprintf("%s to %s", snap.Chart[0].Label, snap.Chart[len(snap.Chart)-1].Label)),
			))
		}
		fmt.Println()
	}
}
