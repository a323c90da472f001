// Package handlers serves the public dashboard and its JSON API.
package handlers

import (
	"time"

	"github.com/charmbracelet/log"

	"statuswatch/app/internal/cache"
	"statuswatch/app/internal/history"
	"statuswatch/app/internal/models"
	"statuswatch/app/internal/ratelimit"
	"statuswatch/app/internal/stats"
)

// LogReader exposes the event log. *database.DB implements it.
type LogReader interface {
	GetLogs(limit int, level, category, site string, offset int) ([]models.LogEntry, error)
	GetLogStats() (*models.LogStats, error)
}

// PageConfig holds the branding shown on the dashboard
type PageConfig struct {
	SiteName         string
	SiteStatus       string
	LogoText         string
	MonitoringPeriod string
	StatusPageURL    string
	// SEOTitle takes the overall status; SEODescription takes the overall
	// status, the service count and the average uptime.
	SEOTitle       string
	SEODescription string
}

// Options configures a Handler
type Options struct {
	Sites    []models.SiteConfig
	Store    *history.Store
	Events   LogReader
	Stats    stats.Options
	Interval time.Duration
	CacheTTL time.Duration
	Page     PageConfig
	Logger   *log.Logger
	Now      func() time.Time
	// APIRateLimit caps /api requests per client per minute; 0 disables it.
	APIRateLimit int
}

const overviewKey = "overview"

// Handler renders views from the last committed history
type Handler struct {
	opts    Options
	cache   *cache.Cache[string, stats.Overview]
	limiter *ratelimit.Limiter
}

// New creates a Handler. Call Close to stop its cache janitor.
func New(opts Options) *Handler {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	h := &Handler{opts: opts, cache: cache.New[string, stats.Overview](opts.CacheTTL)}
	if opts.APIRateLimit > 0 {
		h.limiter = ratelimit.New(ratelimit.Config{PerMinute: opts.APIRateLimit})
	}
	return h
}

// Overview returns the cached overview, recomputing it from disk on a miss.
// An unreadable history renders as no data.
func (h *Handler) Overview() stats.Overview {
	ov, _ := h.cache.GetOrLoad(overviewKey, func() (stats.Overview, error) {
		hist, err := h.opts.Store.Load()
		if err != nil {
			h.opts.Logger.Warn("history unreadable, rendering without data", "err", err)
		}
		return stats.BuildOverview(h.opts.Sites, hist, h.opts.Stats, h.opts.Now()), nil
	})
	return ov
}

// Invalidate drops the cached overview. The scheduler calls it after each
// committed save.
func (h *Handler) Invalidate(history.History) {
	h.cache.Delete(overviewKey)
}

// Close stops background work
func (h *Handler) Close() {
	h.cache.Stop()
	if h.limiter != nil {
		h.limiter.Stop()
	}
}
