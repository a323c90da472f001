// Package stats derives uptime metrics and badges from a window of history.
// Everything here is a pure function of its input.
package stats

import (
	"math"

	"statuswatch/app/internal/history"
	"statuswatch/app/internal/models"
)

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func anyDown(s []models.Observation) bool {
	for _, o := range s {
		if o.Status == models.StatusDown {
			return true
		}
	}
	return false
}

// ComputeSnapshot derives metrics for one site from the trailing window of its
// history. It returns false for an empty window; such a site is left out of
// aggregation entirely.
func ComputeSnapshot(window []models.Observation, opts Options) (Snapshot, bool) {
	window = history.Window(window, opts.WindowSize)
	if len(window) == 0 {
		return Snapshot{}, false
	}

	var snap Snapshot
	snap.Total = len(window)
	for _, o := range window {
		switch o.Status {
		case models.StatusUp:
			snap.UpCount++
		case models.StatusMaintenance:
			// Planned maintenance is not penalised.
			snap.UpCount++
			snap.MaintenanceCount++
		default:
			snap.DownCount++
		}
	}

	total := float64(snap.Total)
	snap.Uptime = round(float64(snap.UpCount)/total*100, 2)
	snap.Downtime = round(float64(snap.DownCount)/total*100, 2)
	snap.HasRecentOutage = anyDown(history.Window(window, opts.RecentCount))
	snap.HasIncidentLastHour = anyDown(history.Window(window, opts.IncidentCount))
	snap.Badge = classify(snap)

	last := window[len(window)-1]
	snap.Current = last.Status
	snap.LastChecked = last.Time
	snap.Chart = chartSeries(window)
	return snap, true
}

// classify applies the badge rules in priority order; first match wins.
func classify(s Snapshot) models.Badge {
	switch {
	case s.HasRecentOutage:
		return models.BadgeOutage
	case s.Uptime >= OperationalUptime:
		return models.BadgeOperational
	case s.Uptime >= DegradedUptime && (s.Downtime > DegradedDowntime || s.HasIncidentLastHour):
		return models.BadgeDegraded
	case s.Uptime >= DegradedUptime:
		return models.BadgeOperational
	default:
		return models.BadgeOutage
	}
}

func chartValue(s models.Status) float64 {
	switch s {
	case models.StatusUp:
		return 1
	case models.StatusMaintenance:
		return 0.5
	default:
		return 0
	}
}

func chartSeries(window []models.Observation) []ChartPoint {
	points := make([]ChartPoint, len(window))
	for i, o := range window {
		points[i] = ChartPoint{Time: o.Time, Label: o.Time.UTC().Format("15:04"), Value: chartValue(o.Status)}
	}
	return points
}
