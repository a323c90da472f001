package monitor

import (
	"encoding/json"
	"time"

	"statuswatch/app/internal/models"
)

type probeJSON struct {
	URL       string        `json:"url"`
	Status    models.Status `json:"status"`
	Code      int           `json:"code"`
	LatencyMS *int          `json:"latency_ms,omitempty"`
	Error     string        `json:"error,omitempty"`
}

type alertJSON struct {
	Site     string        `json:"site"`
	Status   models.Status `json:"status"`
	Decision string        `json:"decision"`
	Error    string        `json:"error,omitempty"`
}

type reportJSON struct {
	Time         time.Time            `json:"time"`
	DurationMS   int64                `json:"duration_ms"`
	Down         int                  `json:"down"`
	Results      map[string]probeJSON `json:"results"`
	Alerts       []alertJSON          `json:"alerts"`
	StoreWarning string               `json:"store_warning,omitempty"`
}

// MarshalJSON renders errors as their message text.
func (c CycleReport) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		Time:         c.Time,
		DurationMS:   c.Duration.Milliseconds(),
		Down:         c.Down,
		Results:      make(map[string]probeJSON, len(c.Results)),
		Alerts:       make([]alertJSON, 0, len(c.Alerts)),
		StoreWarning: errText(c.StoreWarning),
	}
	for name, res := range c.Results {
		out.Results[name] = probeJSON{
			URL:       res.URL,
			Status:    res.Status,
			Code:      res.Code,
			LatencyMS: res.MS,
			Error:     errText(res.Err),
		}
	}
	for _, o := range c.Alerts {
		out.Alerts = append(out.Alerts, alertJSON{
			Site:     o.Site,
			Status:   o.Status,
			Decision: o.Decision.String(),
			Error:    errText(o.Err),
		})
	}
	return json.Marshal(out)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
