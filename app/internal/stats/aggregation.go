package stats

import (
	"time"

	"statuswatch/app/internal/history"
	"statuswatch/app/internal/models"
)

// BuildOverview computes a summary per configured site, in configuration
// order, plus the overall status and the unweighted mean uptime.
func BuildOverview(sites []models.SiteConfig, h history.History, opts Options, now time.Time) Overview {
	ov := Overview{
		TotalServices: len(sites),
		Sites:         make([]SiteSummary, 0, len(sites)),
		Generated:     now.UTC(),
	}

	var uptimes []float64
	var badges []models.Badge
	for _, site := range sites {
		sum := SiteSummary{Name: site.Name, URL: site.URL}
		if snap, ok := ComputeSnapshot(h[site.Name], opts); ok {
			sum.HasData = true
			ov.SitesWithData++
			sum.Snapshot = &snap
			uptimes = append(uptimes, snap.Uptime)
			badges = append(badges, snap.Badge)
		}
		ov.Sites = append(ov.Sites, sum)
	}
	ov.Overall = OverallStatus(badges)
	ov.AverageUptime = AverageUptime(uptimes)
	return ov
}

// AverageUptime is the simple mean of the given per-site uptimes, rounded to
// one decimal for display. It is 0 when there are no sites with data.
func AverageUptime(uptimes []float64) float64 {
	if len(uptimes) == 0 {
		return 0
	}
	var total float64
	for _, u := range uptimes {
		total += u
	}
	return round(total/float64(len(uptimes)), 1)
}

// OverallStatus reduces per-site badges: any Outage wins, then any Degraded.
func OverallStatus(badges []models.Badge) models.Badge {
	overall := models.BadgeOperational
	for _, b := range badges {
		if b.Severity() > overall.Severity() {
			overall = b
		}
	}
	return overall
}
