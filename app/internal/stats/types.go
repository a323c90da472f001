package stats

import (
	"time"

	"statuswatch/app/internal/models"
)

// Badge thresholds, in uptime percent.
const (
	OperationalUptime = 99.5
	DegradedUptime    = 95.0
	DegradedDowntime  = 2.0
)

// Options sizes the windows the engine looks at. With probes every two
// minutes the defaults cover six hours, the last six minutes and the last hour.
type Options struct {
	WindowSize    int `json:"window_size"`
	RecentCount   int `json:"recent_count"`
	IncidentCount int `json:"incident_count"`
}

// DefaultOptions returns the 180/3/30 observation windows.
func DefaultOptions() Options {
	return Options{WindowSize: 180, RecentCount: 3, IncidentCount: 30}
}

// ChartPoint is one dashboard chart sample: up=1, maintenance=0.5, down=0
type ChartPoint struct {
	Time  time.Time `json:"time"`
	Label string    `json:"label"`
	Value float64   `json:"value"`
}

// Snapshot is the derived, never persisted metrics for one site's window
type Snapshot struct {
	Total               int           `json:"total"`
	UpCount             int           `json:"up_count"`
	DownCount           int           `json:"down_count"`
	MaintenanceCount    int           `json:"maintenance_count"`
	Uptime              float64       `json:"uptime"`
	Downtime            float64       `json:"downtime"`
	HasRecentOutage     bool          `json:"has_recent_outage"`
	HasIncidentLastHour bool          `json:"has_incident_last_hour"`
	Badge               models.Badge  `json:"badge"`
	Current             models.Status `json:"current"`
	LastChecked         time.Time     `json:"last_checked"`
	Chart               []ChartPoint  `json:"chart"`
}

// SiteSummary is the dashboard row for one configured site
type SiteSummary struct {
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	HasData  bool      `json:"has_data"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

// Overview is the aggregate across all sites
type Overview struct {
	Overall       models.Badge  `json:"overall"`
	TotalServices int           `json:"total_services"`
	// SitesWithData counts configured sites that have at least one observation.
	SitesWithData int           `json:"sites_with_data"`
	AverageUptime float64       `json:"average_uptime"`
	Sites         []SiteSummary `json:"sites"`
	Generated     time.Time     `json:"generated"`
}
