// Package history maintains the per-site observation history: gap filling,
// retention pruning and the persisted snapshot that survives between runs.
package history

import (
	"sort"
	"time"

	"statuswatch/app/internal/models"
)

// Series is an ordered sequence of observations for one site.
// After Normalize it is ascending by time with no two entries sharing a timestamp.
type Series []models.Observation

// History maps a site name to its series.
type History map[string]Series

// Normalize sorts s ascending by time and removes duplicate timestamps.
// When several observations share an instant the one appearing last in s wins.
func Normalize(s Series) Series {
	if len(s) == 0 {
		return Series{}
	}
	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	n := 0
	for i := range out {
		if n > 0 && out[n-1].Time.Equal(out[i].Time) {
			out[n-1] = out[i]
			continue
		}
		out[n] = out[i]
		n++
	}
	return out[:n]
}

// gapFill returns the synthetic observations needed between from and to.
// A gap of k intervals yields k-1 down entries spaced one interval apart.
func gapFill(from, to time.Time, interval time.Duration) []models.Observation {
	gap := to.Sub(from)
	if interval <= 0 || gap <= interval {
		return nil
	}
	missing := int(gap/interval) - 1
	fill := make([]models.Observation, 0, missing)
	for j := 1; j <= missing; j++ {
		fill = append(fill, models.Observation{
			Time:   from.Add(time.Duration(j) * interval),
			Status: models.StatusDown,
		})
	}
	return fill
}

// FillGaps checks every adjacent pair in s and inserts down observations
// wherever the pair is more than one interval apart. An unmonitored stretch is
// never assumed healthy.
func FillGaps(s Series, interval time.Duration) Series {
	s = Normalize(s)
	if len(s) < 2 {
		return s
	}
	out := make(Series, 0, len(s))
	for i := range s {
		out = append(out, s[i])
		if i < len(s)-1 {
			out = append(out, gapFill(s[i].Time, s[i+1].Time, interval)...)
		}
	}
	return Normalize(out)
}

// ReconcileAndAppend adds obs to s, filling any gap it leaves behind the
// previous observation as well as gaps left anywhere else in s by earlier
// missed runs. An observation at an existing timestamp overwrites it.
func ReconcileAndAppend(s Series, obs models.Observation, interval time.Duration) Series {
	obs = models.NewObservation(obs.Time, obs.Status)
	if len(s) == 0 {
		return Series{obs}
	}
	merged := make(Series, 0, len(s)+1)
	merged = append(merged, s...)
	merged = append(merged, obs)
	return FillGaps(merged, interval)
}

// Prune drops observations strictly older than cutoff.
func Prune(s Series, cutoff time.Time) Series {
	out := make(Series, 0, len(s))
	for _, o := range s {
		if !o.Time.Before(cutoff) {
			out = append(out, o)
		}
	}
	return out
}

// Window returns the trailing n observations of s.
func Window(s Series, n int) Series {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Latest returns the most recent observation.
func Latest(s Series) (models.Observation, bool) {
	if len(s) == 0 {
		return models.Observation{}, false
	}
	return s[len(s)-1], true
}
