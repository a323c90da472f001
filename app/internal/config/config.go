// Package config loads runtime settings from the environment and the sites file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Alert transports
const (
	TransportSMTP   = "smtp"
	TransportResend = "resend"
	TransportLog    = "log"
)

// Config holds all application configuration. It is built once at startup
// and passed by value or pointer to the components that need it.
type Config struct {
	// Paths
	SitesFile    string
	DataDir      string
	HistoryFile  string
	AlertFile    string
	AlertLogFile string
	LockFile     string
	DBPath       string
	LogFile      string
	LogLevel     string

	// Probing
	CheckInterval    time.Duration
	Retention        time.Duration
	ProbeTimeout     time.Duration
	ProbeBudget      time.Duration
	ProbeConcurrency int
	LockTimeout      time.Duration

	// Metrics
	WindowSize    int
	RecentCount   int
	IncidentCount int

	Alerts AlertConfig

	// Server
	Port            string
	EnableScheduler bool
	CacheTTL        time.Duration
	APIRateLimit    int
	SiteName        string
	SiteStatus      string
	SiteLogoText    string
	MonitoringLabel string
	StatusPageURL   string
	SEOTitle        string
	SEODescription  string
}

// AlertConfig holds alert settings
type AlertConfig struct {
	Enabled       bool
	To            string
	From          string
	OnUp          bool
	OnMaintenance bool
	OnDown        bool
	MaxHistory    int
	MaxPerWindow  int
	RateWindow    time.Duration
	Transport     string

	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	SMTPSkipVerify bool

	ResendAPIKey string
}

// Load reads configuration from a .env file, if present, and the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getenv("DATA_DIR", "./data")
	siteName := getenv("SITE_NAME", "Status")

	cfg := &Config{
		SitesFile:    getenv("SITES_FILE", "./sites.yaml"),
		DataDir:      dataDir,
		HistoryFile:  getenv("HISTORY_FILE", filepath.Join(dataDir, "status.json")),
		AlertFile:    getenv("ALERT_FILE", filepath.Join(dataDir, "alert.json")),
		AlertLogFile: getenv("ALERT_LOG_FILE", filepath.Join(dataDir, "alert.log")),
		LockFile:     getenv("LOCK_FILE", filepath.Join(dataDir, "status.lock")),
		DBPath:       getenv("DB_PATH", filepath.Join(dataDir, "events.db")),
		LogFile:      getenv("LOG_FILE", ""),
		LogLevel:     getenv("LOG_LEVEL", "info"),

		CheckInterval:    envDurMins("CHECK_INTERVAL_MINUTES", 2),
		Retention:        time.Duration(envInt("RETENTION_HOURS", 6)) * time.Hour,
		ProbeTimeout:     envDurSecs("PROBE_TIMEOUT_SECONDS", 10),
		ProbeBudget:      envDurSecs("PROBE_BUDGET_SECONDS", 60),
		ProbeConcurrency: envInt("PROBE_CONCURRENCY", 16),
		LockTimeout:      envDurSecs("LOCK_TIMEOUT_SECONDS", 30),

		WindowSize:    envInt("WINDOW_SIZE", 180),
		RecentCount:   envInt("RECENT_WINDOW", 3),
		IncidentCount: envInt("INCIDENT_WINDOW", 30),

		Alerts: AlertConfig{
			Enabled:        envBool("ALERT_ENABLED", false),
			To:             getenv("ALERT_EMAIL_TO", ""),
			From:           getenv("ALERT_EMAIL_FROM", ""),
			OnUp:           envBool("ALERT_ON_UP", true),
			OnMaintenance:  envBool("ALERT_ON_MAINTENANCE", true),
			OnDown:         envBool("ALERT_ON_DOWN", true),
			MaxHistory:     envInt("MAX_ALERT_HISTORY", 5),
			MaxPerWindow:   envInt("MAX_ALERTS_PER_HOUR", 3),
			RateWindow:     envDurMins("ALERT_RATE_WINDOW_MINUTES", 60),
			Transport:      strings.ToLower(getenv("ALERT_TRANSPORT", TransportSMTP)),
			SMTPHost:       getenv("SMTP_HOST", ""),
			SMTPPort:       envInt("SMTP_PORT", 587),
			SMTPUser:       getenv("SMTP_USER", ""),
			SMTPPassword:   getenv("SMTP_PASSWORD", ""),
			SMTPSkipVerify: envBool("SMTP_SKIP_VERIFY", false),
			ResendAPIKey:   getenv("RESEND_API_KEY", ""),
		},

		Port:            getenv("PORT", "4555"),
		EnableScheduler: envBool("ENABLE_SCHEDULER", true),
		CacheTTL:        envDurSecs("CACHE_TTL_SECONDS", 30),
		APIRateLimit:    envInt("API_RATE_LIMIT", 120),
		SiteName:        siteName,
		SiteStatus:      getenv("SITE_STATUS", "Status Monitor"),
		SiteLogoText:    getenv("SITE_LOGO_TEXT", firstLetter(siteName)),
		MonitoringLabel: getenv("MONITORING_PERIOD", "6 hours"),
		StatusPageURL:   getenv("STATUS_PAGE_URL", ""),
		SEOTitle:        getenv("SEO_TITLE_TEMPLATE", siteName+" Status Monitor - %s"),
		SEODescription: getenv("SEO_DESCRIPTION_TEMPLATE", siteName+" real-time status monitoring: current overall status is %s. "+
			"We monitor %d services continuously, tracking uptime, downtime, and maintenance incidents. "+
			"Average uptime over the monitored period is %.1f%%."),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the monitor cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.CheckInterval < time.Minute {
		errs = append(errs, fmt.Errorf("check interval %v: must be at least one minute", c.CheckInterval))
	}
	if c.Retention <= 0 {
		errs = append(errs, errors.New("retention must be positive"))
	}
	if c.ProbeTimeout <= 0 {
		errs = append(errs, errors.New("probe timeout must be positive"))
	}
	if c.ProbeConcurrency < 1 {
		errs = append(errs, errors.New("probe concurrency must be at least 1"))
	}
	if c.WindowSize < 1 || c.RecentCount < 1 || c.IncidentCount < 1 {
		errs = append(errs, errors.New("metric windows must be positive"))
	}
	if c.Alerts.MaxHistory < 1 || c.Alerts.MaxPerWindow < 0 || c.Alerts.RateWindow <= 0 {
		errs = append(errs, errors.New("alert history and rate limits must be positive"))
	}
	if c.APIRateLimit < 0 {
		errs = append(errs, errors.New("api rate limit must not be negative"))
	}
	if c.Alerts.Enabled {
		switch c.Alerts.Transport {
		case TransportSMTP:
			if c.Alerts.SMTPHost == "" || c.Alerts.To == "" {
				errs = append(errs, errors.New("smtp alerts need SMTP_HOST and ALERT_EMAIL_TO"))
			}
		case TransportResend:
			if c.Alerts.ResendAPIKey == "" || c.Alerts.To == "" || c.Alerts.From == "" {
				errs = append(errs, errors.New("resend alerts need RESEND_API_KEY, ALERT_EMAIL_TO and ALERT_EMAIL_FROM"))
			}
		case TransportLog:
		default:
			errs = append(errs, fmt.Errorf("unknown alert transport %q", c.Alerts.Transport))
		}
	}
	return errors.Join(errs...)
}

func firstLetter(s string) string {
	for _, r := range s {
		return strings.ToUpper(string(r))
	}
	return "S"
}

// Helper functions
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.ToLower(getenv(k, ""))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func envDurSecs(k string, def int) time.Duration {
	return time.Duration(envInt(k, def)) * time.Second
}

func envDurMins(k string, def int) time.Duration {
	return time.Duration(envInt(k, def)) * time.Minute
}
