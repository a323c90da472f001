package main

import (
	"fmt"
	"strings"

	"statuswatch/app/internal/alerts"
	"statuswatch/app/internal/checker"
	"statuswatch/app/internal/config"
	"statuswatch/app/internal/database"
	"statuswatch/app/internal/history"
	"statuswatch/app/internal/logging"
	"statuswatch/app/internal/models"
	"statuswatch/app/internal/monitor"
	"statuswatch/app/internal/stats"
)

// app holds the components shared by every subcommand
type app struct {
	cfg      *config.Config
	sites    []models.SiteConfig
	log      *logging.Logger
	db       *database.DB
	alertLog *alerts.AlertLog
}

// newApp loads configuration and the sites file and opens the event log.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if sitesFile != "" {
		cfg.SitesFile = sitesFile
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Prefix: "statuswatch"})
	if err != nil {
		return nil, err
	}

	sites, err := config.LoadSites(cfg.SitesFile)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("open event log: %w", err)
	}

	return &app{cfg: cfg, sites: sites, log: logger, db: db}, nil
}

func (a *app) Close() {
	if a.alertLog != nil {
		_ = a.alertLog.Close()
	}
	_ = a.db.Close()
	_ = a.log.Close()
}

func (a *app) statsOptions() stats.Options {
	return stats.Options{
		WindowSize:    a.cfg.WindowSize,
		RecentCount:   a.cfg.RecentCount,
		IncidentCount: a.cfg.IncidentCount,
	}
}

func (a *app) historyStore() *history.Store {
	return history.NewStore(a.cfg.HistoryFile, a.log.Logger)
}

func (a *app) notifier() alerts.Notifier {
	ac := a.cfg.Alerts
	switch ac.Transport {
	case config.TransportResend:
		return alerts.NewResendNotifier(ac.ResendAPIKey, ac.From, splitAddresses(ac.To))
	case config.TransportLog:
		return alerts.LogNotifier{Logger: a.log.Logger}
	default:
		return &alerts.SMTPNotifier{Config: alerts.SMTPConfig{
			Host:       ac.SMTPHost,
			Port:       ac.SMTPPort,
			User:       ac.SMTPUser,
			Password:   ac.SMTPPassword,
			SkipVerify: ac.SMTPSkipVerify,
			From:       ac.From,
			To:         ac.To,
		}}
	}
}

func (a *app) runner() *monitor.Runner {
	r := &monitor.Runner{
		Sites:       a.sites,
		Interval:    a.cfg.CheckInterval,
		Retention:   a.cfg.Retention,
		Store:       a.historyStore(),
		LockPath:    a.cfg.LockFile,
		LockTimeout: a.cfg.LockTimeout,
		Probe: checker.Options{
			Timeout:     a.cfg.ProbeTimeout,
			Budget:      a.cfg.ProbeBudget,
			Concurrency: a.cfg.ProbeConcurrency,
		},
		Events: a.db,
		Logger: a.log.Logger,
	}

	if ac := a.cfg.Alerts; ac.Enabled {
		a.alertLog = alerts.NewAlertLog(a.cfg.AlertLogFile)
		r.Alerts = &monitor.AlertConfig{
			Machine: &alerts.Machine{
				Policy: alerts.Policy{
					Triggers:     alerts.Triggers{OnUp: ac.OnUp, OnMaintenance: ac.OnMaintenance, OnDown: ac.OnDown},
					MaxPerWindow: ac.MaxPerWindow,
					Window:       ac.RateWindow,
					MaxHistory:   ac.MaxHistory,
				},
				Notifier:      a.notifier(),
				Log:           a.alertLog,
				Logger:        a.log.Logger,
				StatusPageURL: a.cfg.StatusPageURL,
			},
			Store: alerts.NewFileStore(a.cfg.AlertFile, a.log.Logger),
		}
	}
	return r
}

func splitAddresses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
