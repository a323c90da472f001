// Package alerts turns status transitions into rate-limited notifications.
package alerts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"statuswatch/app/internal/models"
)

// Triggers selects which transition targets produce a notification
type Triggers struct {
	OnUp          bool
	OnMaintenance bool
	OnDown        bool
}

// Allows reports whether a transition into s should notify.
func (t Triggers) Allows(s models.Status) bool {
	switch s {
	case models.StatusUp:
		return t.OnUp
	case models.StatusMaintenance:
		return t.OnMaintenance
	case models.StatusDown:
		return t.OnDown
	}
	return false
}

// Policy configures the alert state machine
type Policy struct {
	Triggers     Triggers
	MaxPerWindow int
	Window       time.Duration
	MaxHistory   int
}

// DefaultPolicy alerts on every transition, at most three per hour per site.
func DefaultPolicy() Policy {
	return Policy{
		Triggers:     Triggers{OnUp: true, OnMaintenance: true, OnDown: true},
		MaxPerWindow: 3,
		Window:       60 * time.Minute,
		MaxHistory:   5,
	}
}

// Decision is the outcome of evaluating one site
type Decision int

const (
	NoChange Decision = iota
	Muted
	Suppressed
	Send
)

func (d Decision) String() string {
	switch d {
	case NoChange:
		return "no-change"
	case Muted:
		return "muted"
	case Suppressed:
		return "suppressed"
	case Send:
		return "send"
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

// Decide evaluates the latest status of site against its record. A site
// without entries is treated as a transition.
func Decide(r Record, site string, current models.Status, now time.Time, p Policy) Decision {
	if prev, ok := r.Previous(site); ok && prev == current {
		return NoChange
	}
	if !p.Triggers.Allows(current) {
		return Muted
	}
	if r.CountSince(site, now, p.Window) >= p.MaxPerWindow {
		return Suppressed
	}
	return Send
}

// Outcome reports what happened to one site during Process
type Outcome struct {
	Site     string
	Status   models.Status
	Decision Decision
	// Err is set when a Send decision failed to dispatch.
	Err error
}

// Machine applies a Policy, dispatching through a Notifier
type Machine struct {
	Policy   Policy
	Notifier Notifier
	Log      *AlertLog
	Logger   *log.Logger
	// StatusPageURL is included in notification bodies when set.
	StatusPageURL string
}

// Process evaluates every site in latest, dispatches notifications and
// updates r in place. Dispatch failures are reported in the outcome only.
func (m *Machine) Process(ctx context.Context, r Record, latest map[string]models.Status, now time.Time) []Outcome {
	now = now.UTC().Truncate(time.Second)
	names := make([]string, 0, len(latest))
	for name := range latest {
		names = append(names, name)
	}
	sort.Strings(names)

	outcomes := make([]Outcome, 0, len(latest))
	for _, site := range names {
		current := latest[site]
		out := Outcome{Site: site, Status: current}
		out.Decision = Decide(r, site, current, now, m.Policy)

		if out.Decision == Send {
			n := NewNotification(site, current, now, m.StatusPageURL)
			out.Err = m.Notifier.Notify(ctx, n)
			if m.Log != nil {
				if err := m.Log.Write(now, site, current, out.Err == nil); err != nil && m.Logger != nil {
					m.Logger.Warn("alert log write failed", "err", err)
				}
			}
			if m.Logger != nil {
				if out.Err != nil {
					m.Logger.Error("alert dispatch failed", "site", site, "status", current, "id", n.ID, "err", out.Err)
				} else {
					m.Logger.Info("alert sent", "site", site, "status", current, "id", n.ID)
				}
			}
		} else if m.Logger != nil && out.Decision != NoChange {
			m.Logger.Debug("alert not sent", "site", site, "status", current, "decision", out.Decision)
		}

		if out.Decision != NoChange {
			r.Append(site, models.AlertEntry{Time: now, Status: current}, m.Policy.MaxHistory)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}
