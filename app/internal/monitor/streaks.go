package monitor

import (
	"sync"

	"statuswatch/app/internal/models"
)

type streak struct {
	status models.Status
	count  int
}

// Streaks counts how many consecutive cycles each site has reported the same
// status. It is safe for concurrent use.
type Streaks struct {
	mu     sync.Mutex
	counts map[string]streak
}

// NewStreaks creates an empty tracker.
func NewStreaks() *Streaks {
	return &Streaks{counts: make(map[string]streak)}
}

// Observe records status for site and returns the length of the current
// streak, at least 1.
func (s *Streaks) Observe(site string, status models.Status) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.counts[site]
	if cur.status == status {
		cur.count++
	} else {
		cur = streak{status: status, count: 1}
	}
	s.counts[site] = cur
	return cur.count
}

// Get returns the current streak for site.
func (s *Streaks) Get(site string) (models.Status, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.counts[site]
	return cur.status, cur.count
}

// Prune removes sites that are no longer configured.
func (s *Streaks) Prune(valid map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for site := range s.counts {
		if _, ok := valid[site]; !ok {
			delete(s.counts, site)
		}
	}
}
