package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleStatus returns the overview as JSON
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Overview())
}

// HandleHealth reports liveness
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// queryInt parses a non-negative integer query parameter, clamped to max.
func queryInt(r *http.Request, key string, def, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

// HandleLogs returns event log entries with optional filtering
func (h *Handler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	if h.opts.Events == nil {
		http.Error(w, "event log disabled", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	limit := queryInt(r, "limit", 100, 500)
	offset := queryInt(r, "offset", 0, 0)

	logs, err := h.opts.Events.GetLogs(limit, q.Get("level"), q.Get("category"), q.Get("site"), offset)
	if err != nil {
		h.opts.Logger.Error("read event log", "err", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// HandleLogStats returns event log counts per level
func (h *Handler) HandleLogStats(w http.ResponseWriter, r *http.Request) {
	if h.opts.Events == nil {
		http.Error(w, "event log disabled", http.StatusServiceUnavailable)
		return
	}
	stats, err := h.opts.Events.GetLogStats()
	if err != nil {
		h.opts.Logger.Error("read event log stats", "err", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
