package alerts

import (
	"sort"
	"time"

	"statuswatch/app/internal/models"
)

// Record holds the most recent status transitions per site, oldest first.
type Record map[string][]models.AlertEntry

// Previous returns the last recorded status for site, or false when the site
// has no entries yet.
func (r Record) Previous(site string) (models.Status, bool) {
	entries := r[site]
	if len(entries) == 0 {
		return "", false
	}
	return entries[len(entries)-1].Status, true
}

// Append adds an entry for site and evicts the oldest ones beyond max.
func (r Record) Append(site string, e models.AlertEntry, max int) {
	entries := append(r[site], e)
	if max > 0 && len(entries) > max {
		entries = append([]models.AlertEntry(nil), entries[len(entries)-max:]...)
	}
	r[site] = entries
}

// CountSince counts entries for site no older than window, inclusive.
func (r Record) CountSince(site string, now time.Time, window time.Duration) int {
	n := 0
	for _, e := range r[site] {
		if now.Sub(e.Time) <= window {
			n++
		}
	}
	return n
}

// Sites returns the recorded site names, sorted.
func (r Record) Sites() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
