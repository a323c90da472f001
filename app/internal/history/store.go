package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"statuswatch/app/internal/atomicfile"
	"statuswatch/app/internal/models"

	"github.com/charmbracelet/log"
)

// ErrCorrupt is returned by Load alongside an empty history when the
// persisted file exists but cannot be read or parsed.
var ErrCorrupt = errors.New("history store unreadable")

// Store persists History as a JSON object of
// site -> {timestamp -> status}.
type Store struct {
	Path   string
	Logger *log.Logger
}

// NewStore creates a store backed by path
func NewStore(path string, logger *log.Logger) *Store {
	return &Store{Path: path, Logger: logger}
}

// Load reads the last committed snapshot. A missing file yields an empty
// history. An unreadable or malformed file also yields an empty history, with
// an error wrapping ErrCorrupt so the caller can warn and keep monitoring.
func (s *Store) Load() (History, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return History{}, nil
		}
		return History{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return s.decode(data)
}

func (s *Store) decode(data []byte) (History, error) {
	var raw map[string]map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return History{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.Path, err)
	}

	h := make(History, len(raw))
	for site, entries := range raw {
		series := make(Series, 0, len(entries))
		dropped := 0
		for ts, status := range entries {
			t, err := parseTimestamp(ts)
			if err != nil {
				dropped++
				continue
			}
			series = append(series, models.NewObservation(t, models.ParseStatus(status)))
		}
		if dropped > 0 && s.Logger != nil {
			s.Logger.Warn("Dropped history entries with invalid timestamps", "site", site, "count", dropped)
		}
		h[site] = Normalize(series)
	}
	return h, nil
}

// Save atomically replaces the snapshot with h.
func (s *Store) Save(h History) error {
	if err := atomicfile.WriteJSON(s.Path, encode(h)); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func encode(h History) map[string]map[string]string {
	out := make(map[string]map[string]string, len(h))
	for site, series := range h {
		entries := make(map[string]string, len(series))
		for _, o := range series {
			entries[o.Time.UTC().Format(models.TimeLayout)] = string(o.Status)
		}
		out[site] = entries
	}
	return out
}

func parseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse(models.TimeLayout, ts)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, ts)
}
