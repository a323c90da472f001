package alerts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"statuswatch/app/internal/atomicfile"
	"statuswatch/app/internal/models"
)

// FileStore persists a Record as {"site": [{"time": ..., "status": ...}]}.
type FileStore struct {
	Path   string
	Logger *log.Logger
}

func NewFileStore(path string, logger *log.Logger) *FileStore {
	return &FileStore{Path: path, Logger: logger}
}

// Load reads the record. A missing or unreadable file yields an empty record;
// the latter is logged since it resets rate limiting.
func (s *FileStore) Load() Record {
	r := Record{}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.warn("alert record unreadable, starting empty", err)
		}
		return r
	}
	var raw map[string][]models.AlertEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		s.warn("alert record corrupt, starting empty", err)
		return r
	}
	for site, entries := range raw {
		if len(entries) > 0 {
			r[site] = entries
		}
	}
	return r
}

// Save writes the record atomically.
func (s *FileStore) Save(r Record) error {
	if r == nil {
		r = Record{}
	}
	if err := atomicfile.WriteJSON(s.Path, r); err != nil {
		return fmt.Errorf("save alert record: %w", err)
	}
	return nil
}

func (s *FileStore) warn(msg string, err error) {
	if s.Logger != nil {
		s.Logger.Warn(msg, "path", s.Path, "err", err)
	}
}
