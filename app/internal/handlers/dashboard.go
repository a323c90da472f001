package handlers

import (
	"bytes"
	"embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"statuswatch/app/internal/models"
	"statuswatch/app/internal/stats"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTmpl = template.Must(template.New("index.html").ParseFS(templateFS, "templates/index.html"))

type siteView struct {
	ID          string
	Name        string
	HasData     bool
	Badge       string
	BadgeClass  string
	Uptime      string
	UpCount     int
	DownCount   int
	LastChecked string
	Points      string
	Labels      string
}

type pageView struct {
	PageConfig
	Title         string
	Description   string
	Overall       string
	OverallClass  string
	TotalServices int
	AverageUptime string
	CheckRate     string
	Updated       string
	Sites         []siteView
}

// HandleIndex renders the HTML dashboard
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	view := h.buildPage(h.Overview())

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, view); err != nil {
		h.opts.Logger.Error("render dashboard", "err", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) buildPage(ov stats.Overview) pageView {
	now := h.opts.Now()
	page := h.opts.Page
	overall := string(ov.Overall)

	view := pageView{
		PageConfig:    page,
		Title:         sprintfTemplate(page.SEOTitle, overall),
		Description:   sprintfTemplate(page.SEODescription, overall, ov.TotalServices, ov.AverageUptime),
		Overall:       overall,
		OverallClass:  badgeClass(ov.Overall),
		TotalServices: ov.TotalServices,
		AverageUptime: fmt.Sprintf("%.1f", ov.AverageUptime),
		CheckRate:     intervalLabel(h.opts.Interval),
		Updated:       now.UTC().Format("02 Jan 2006, 15:04:05") + " UTC",
		Sites:         make([]siteView, 0, len(ov.Sites)),
	}

	for _, s := range ov.Sites {
		sv := siteView{
			ID:   base64.RawURLEncoding.EncodeToString([]byte(s.Name)),
			Name: s.Name,
		}
		if snap := s.Snapshot; s.HasData && snap != nil {
			sv.HasData = true
			sv.Badge = string(snap.Badge)
			sv.BadgeClass = badgeClass(snap.Badge)
			sv.Uptime = fmt.Sprintf("%.2f", snap.Uptime)
			sv.UpCount = snap.UpCount
			sv.DownCount = snap.DownCount
			sv.LastChecked = humanize.RelTime(snap.LastChecked, now, "ago", "from now")
			sv.Points, sv.Labels = chartJSON(snap.Chart)
		}
		view.Sites = append(view.Sites, sv)
	}
	return view
}

func badgeClass(b models.Badge) string {
	return strings.ToLower(string(b))
}

func chartJSON(points []stats.ChartPoint) (string, string) {
	values := make([]float64, len(points))
	labels := make([]string, len(points))
	for i, p := range points {
		values[i] = p.Value
		labels[i] = p.Label
	}
	v, _ := json.Marshal(values)
	l, _ := json.Marshal(labels)
	return string(v), string(l)
}

// sprintfTemplate formats an operator-supplied template, falling back to the
// raw text when it has no verbs.
func sprintfTemplate(tmpl string, args ...any) string {
	if !strings.Contains(tmpl, "%") {
		return tmpl
	}
	out := fmt.Sprintf(tmpl, args...)
	if i := strings.Index(out, "%!(EXTRA"); i >= 0 {
		out = strings.TrimSpace(out[:i])
	}
	return out
}

// intervalLabel renders a check interval as "2 minutes" or "1 hour".
func intervalLabel(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return plural(int(d/time.Second), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
