package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the on-disk timestamp format: UTC, second precision, Z suffix.
const TimeLayout = "2006-01-02T15:04:05Z"

// Status is the classification of a single probe
type Status string

const (
	StatusUp          Status = "up"
	StatusDown        Status = "down"
	StatusMaintenance Status = "maintenance"
)

// ParseStatus converts a stored status string. Anything unrecognised is
// treated as down so a damaged store never reports a site as healthy.
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusUp:
		return StatusUp
	case StatusMaintenance:
		return StatusMaintenance
	default:
		return StatusDown
	}
}

// Valid reports whether s is one of the three known statuses
func (s Status) Valid() bool {
	return s == StatusUp || s == StatusDown || s == StatusMaintenance
}

// Observation is a single timestamped status reading for one site
type Observation struct {
	Time   time.Time `json:"time"`
	Status Status    `json:"status"`
}

// NewObservation normalises t to UTC at second resolution.
func NewObservation(t time.Time, s Status) Observation {
	return Observation{Time: t.UTC().Truncate(time.Second), Status: s}
}

// SiteConfig is one monitored endpoint from the sites file
type SiteConfig struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// Badge is the discrete per-site classification shown on the dashboard
type Badge string

const (
	BadgeOperational Badge = "Operational"
	BadgeDegraded    Badge = "Degraded"
	BadgeOutage      Badge = "Outage"
)

// Severity orders badges so the worst one can be picked for the overall status.
func (b Badge) Severity() int {
	switch b {
	case BadgeOutage:
		return 2
	case BadgeDegraded:
		return 1
	default:
		return 0
	}
}

// AlertEntry is one status transition recorded by the alert state machine
type AlertEntry struct {
	Time   time.Time
	Status Status
}

type alertEntryJSON struct {
	Time   string `json:"time"`
	Status string `json:"status"`
}

// MarshalJSON writes the entry as {"time": "...Z", "status": "..."}.
func (e AlertEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(alertEntryJSON{
		Time:   e.Time.UTC().Format(TimeLayout),
		Status: string(e.Status),
	})
}

// UnmarshalJSON accepts the format written by MarshalJSON.
func (e *AlertEntry) UnmarshalJSON(data []byte) error {
	var raw alertEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := time.Parse(TimeLayout, raw.Time)
	if err != nil {
		return fmt.Errorf("alert entry time %q: %w", raw.Time, err)
	}
	e.Time = t.UTC()
	e.Status = ParseStatus(raw.Status)
	return nil
}

// LogEntry represents an operator-visible event log entry
type LogEntry struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Site      string `json:"site"`
	Message   string `json:"message"`
	Details   string `json:"details"`
}

// LogStats summarises the event log
type LogStats struct {
	TotalLogs  int `json:"total_logs"`
	ErrorCount int `json:"error_count"`
	WarnCount  int `json:"warn_count"`
	InfoCount  int `json:"info_count"`
	DebugCount int `json:"debug_count"`
}
