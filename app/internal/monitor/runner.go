// Package monitor runs the probe and reconciliation cycle.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"statuswatch/app/internal/alerts"
	"statuswatch/app/internal/checker"
	"statuswatch/app/internal/database"
	"statuswatch/app/internal/history"
	"statuswatch/app/internal/models"
)

// EventLog receives operator-visible events. *database.DB implements it.
type EventLog interface {
	InsertLog(level, category, site, message, details string) error
	PruneLogs(keepCount int) error
}

// AlertConfig wires the alert state machine into the cycle
type AlertConfig struct {
	Machine *alerts.Machine
	Store   *alerts.FileStore
}

// Runner performs reconciliation cycles. All fields are read-only after
// construction.
type Runner struct {
	Sites       []models.SiteConfig
	Interval    time.Duration
	Retention   time.Duration
	Store       *history.Store
	LockPath    string
	LockTimeout time.Duration
	Probe       checker.Options
	// Alerts is nil when alerting is disabled.
	Alerts *AlertConfig
	Events EventLog
	Logger *log.Logger
	// OnCommit is called with the saved history after every successful save.
	OnCommit func(history.History)
	// Now defaults to time.Now.
	Now func() time.Time

	streaks *Streaks
}

// CycleReport summarises one RunOnce
type CycleReport struct {
	Time     time.Time
	Results  map[string]checker.Result
	Alerts   []alerts.Outcome
	Down     int
	Duration time.Duration
	// StoreWarning is set when the previous history could not be read.
	StoreWarning error
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// RunOnce acquires the run lock, probes every configured site, folds the
// results into the history, saves it and evaluates alerts. Lock, save and
// cancellation errors are returned; everything else is logged. A cycle
// cancelled while probing writes nothing.
func (r *Runner) RunOnce(ctx context.Context) (*CycleReport, error) {
	if r.streaks == nil {
		r.streaks = NewStreaks()
	}
	start := time.Now()

	lockCtx, cancel := context.WithTimeout(ctx, r.LockTimeout)
	lock, err := history.AcquireLock(lockCtx, r.LockPath)
	cancel()
	if err != nil {
		r.event(database.LogLevelError, database.LogCategorySchedule, "", "Cycle skipped: run lock unavailable", err.Error())
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			r.logger().Warn("release run lock", "err", err)
		}
	}()

	report := &CycleReport{}
	h, err := r.Store.Load()
	if err != nil {
		report.StoreWarning = err
		r.logger().Warn("history unreadable, starting empty", "path", r.Store.Path, "err", err)
		r.event(database.LogLevelWarn, database.LogCategoryStorage, "", "History unreadable, starting empty", err.Error())
	}

	cycleTime := r.now().UTC().Truncate(time.Second)
	report.Time = cycleTime
	report.Results = checker.ProbeAll(ctx, r.Sites, r.Probe)
	if err := ctx.Err(); err != nil {
		r.logger().Warn("cycle aborted while probing", "err", err)
		return nil, fmt.Errorf("cycle aborted: %w", err)
	}

	valid := make(map[string]struct{}, len(r.Sites))
	for _, site := range r.Sites {
		valid[site.Name] = struct{}{}
		res := report.Results[site.Name]
		obs := models.NewObservation(cycleTime, res.Status)
		h[site.Name] = history.ReconcileAndAppend(h[site.Name], obs, r.Interval)
		if res.Status == models.StatusDown {
			report.Down++
		}
		r.recordCheck(res)
	}
	r.streaks.Prune(valid)

	cutoff := r.now().UTC().Add(-r.Retention)
	for name, series := range h {
		pruned := history.Prune(series, cutoff)
		if len(pruned) == 0 {
			delete(h, name)
			continue
		}
		h[name] = pruned
	}

	if err := r.Store.Save(h); err != nil {
		r.logger().Error("history save failed", "path", r.Store.Path, "err", err)
		r.event(database.LogLevelError, database.LogCategoryStorage, "", "History save failed", err.Error())
		return report, err
	}
	if r.OnCommit != nil {
		r.OnCommit(h)
	}

	if r.Alerts != nil {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("alerts skipped: %w", err)
		}
		outcomes, err := r.processAlerts(ctx, h, cycleTime)
		report.Alerts = outcomes
		if err != nil {
			return report, err
		}
	}

	if r.Events != nil {
		if err := r.Events.PruneLogs(database.DefaultKeepLogs); err != nil {
			r.logger().Warn("prune event log", "err", err)
		}
	}

	report.Duration = time.Since(start)
	r.logger().Info("cycle complete", "sites", len(r.Sites), "down", report.Down, "alerts", countSent(report.Alerts), "took", report.Duration.Round(time.Millisecond))
	return report, nil
}

func (r *Runner) recordCheck(res checker.Result) {
	streak := r.streaks.Observe(res.Site, res.Status)

	details := fmt.Sprintf("status=%d", res.Code)
	if res.MS != nil {
		details += fmt.Sprintf(", latency=%dms", *res.MS)
	}
	if res.Err != nil {
		details += ", error=" + res.Err.Error()
	}
	details += fmt.Sprintf(", streak=%d", streak)

	switch res.Status {
	case models.StatusUp:
		r.event(database.LogLevelInfo, database.LogCategoryCheck, res.Site, "Site check passed", details)
	case models.StatusMaintenance:
		r.logger().Warn("site in maintenance", "site", res.Site, "streak", streak)
		r.event(database.LogLevelWarn, database.LogCategoryCheck, res.Site, "Site in maintenance", details)
	default:
		r.logger().Warn("site check failed", "site", res.Site, "code", res.Code, "err", res.Err, "streak", streak)
		r.event(database.LogLevelError, database.LogCategoryCheck, res.Site, "Site check failed", details)
	}
}

// processAlerts feeds the latest stored observation of every configured site
// to the alert machine and saves the updated record.
func (r *Runner) processAlerts(ctx context.Context, h history.History, now time.Time) ([]alerts.Outcome, error) {
	record := r.Alerts.Store.Load()
	latest := make(map[string]models.Status, len(r.Sites))
	for _, site := range r.Sites {
		if obs, ok := history.Latest(h[site.Name]); ok {
			latest[site.Name] = obs.Status
		}
	}

	outcomes := r.Alerts.Machine.Process(ctx, record, latest, now)
	for _, o := range outcomes {
		switch {
		case o.Decision == alerts.Send && o.Err != nil:
			r.event(database.LogLevelError, database.LogCategoryAlert, o.Site, "Alert dispatch failed", fmt.Sprintf("status=%s, error=%v", o.Status, o.Err))
		case o.Decision == alerts.Send:
			r.event(database.LogLevelInfo, database.LogCategoryAlert, o.Site, "Alert sent", "status="+string(o.Status))
		case o.Decision == alerts.Suppressed:
			r.event(database.LogLevelWarn, database.LogCategoryAlert, o.Site, "Alert suppressed by rate limit", "status="+string(o.Status))
		}
	}

	if err := r.Alerts.Store.Save(record); err != nil {
		r.logger().Error("alert record save failed", "err", err)
		r.event(database.LogLevelError, database.LogCategoryStorage, "", "Alert record save failed", err.Error())
		return outcomes, err
	}
	return outcomes, nil
}

// Run executes a cycle immediately and then every interval until ctx is
// cancelled. Failed cycles are logged and the loop continues.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	r.logger().Info("scheduler started", "interval", r.Interval, "sites", len(r.Sites))
	for {
		if _, err := r.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			r.logger().Error("cycle failed", "err", err)
		}
		select {
		case <-ctx.Done():
			r.logger().Info("scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) event(level, category, site, message, details string) {
	if r.Events == nil {
		return
	}
	if err := r.Events.InsertLog(level, category, site, message, details); err != nil {
		r.logger().Warn("event log write failed", "err", err)
	}
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}

func countSent(outcomes []alerts.Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Decision == alerts.Send && o.Err == nil {
			n++
		}
	}
	return n
}
