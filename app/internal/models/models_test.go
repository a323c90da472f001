package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"up":          StatusUp,
		" UP ":        StatusUp,
		"maintenance": StatusMaintenance,
		"down":        StatusDown,
		"":            StatusDown,
		"degraded":    StatusDown,
	}
	for in, want := range tests {
		if got := ParseStatus(in); got != want {
			t.Errorf("ParseStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewObservation_NormalisesTime(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	o := NewObservation(time.Date(2025, 1, 1, 13, 0, 5, 900, loc), StatusUp)
	if !o.Time.Equal(time.Date(2025, 1, 1, 12, 0, 5, 0, time.UTC)) || o.Time.Location() != time.UTC {
		t.Errorf("Time = %v", o.Time)
	}
}

func TestBadgeSeverity(t *testing.T) {
	if !(BadgeOutage.Severity() > BadgeDegraded.Severity() && BadgeDegraded.Severity() > BadgeOperational.Severity()) {
		t.Error("severity must order Outage > Degraded > Operational")
	}
}

func TestAlertEntry_JSON(t *testing.T) {
	var e AlertEntry
	if err := json.Unmarshal([]byte(`{"time":"2025-01-01T10:00:00Z","status":"bogus"}`), &e); err != nil {
		t.Fatal(err)
	}
	if e.Status != StatusDown {
		t.Errorf("unknown status should load as down, got %q", e.Status)
	}

	out, err := json.Marshal(AlertEntry{Time: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), Status: StatusUp})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"time":"2025-01-01T10:00:00Z","status":"up"}` {
		t.Errorf("json = %s", out)
	}

	if err := json.Unmarshal([]byte(`{"time":"yesterday","status":"up"}`), &e); err == nil {
		t.Error("bad time should fail")
	}
}
